package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"flowgoals_backend/internal/config"
	"flowgoals_backend/internal/repository"
	"flowgoals_backend/internal/util"
)

// AIChatService 学习助手对话。使用用户自己保存的 API Key，
// 服务端不为聊天流量付费。
type AIChatService struct {
	config config.AIConfig
	users  *repository.UserRepository
	client *http.Client
}

func NewAIChatService(cfg config.AIConfig, users *repository.UserRepository) *AIChatService {
	return &AIChatService{
		config: cfg,
		users:  users,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ChatMessage 会话消息
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest 带当日任务上下文的对话请求
type ChatRequest struct {
	Message     string        `json:"message" binding:"required"`
	History     []ChatMessage `json:"history"`
	TaskTitle   string        `json:"taskTitle"`
	SkillName   string        `json:"skillName"`
	ActionItems []string      `json:"actionItems"`
}

const chatHistoryLimit = 10

// Chat 转发到 OpenAI 兼容端点，返回助手回复
func (s *AIChatService) Chat(userID uint, req ChatRequest) (string, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return "", err
	}
	if user.OpenAIAPIKey == "" {
		return "", util.ErrNoAPIKey
	}

	systemPrompt := "You are a supportive study buddy helping someone learn. Keep answers concise and encouraging."
	if req.SkillName != "" {
		systemPrompt += fmt.Sprintf(" They are learning %s.", req.SkillName)
	}
	if req.TaskTitle != "" {
		systemPrompt += fmt.Sprintf(" Today's topic is: %s.", req.TaskTitle)
	}
	for _, item := range req.ActionItems {
		systemPrompt += fmt.Sprintf(" Action item: %s.", item)
	}

	messages := []aiChatMessage{{Role: "system", Content: systemPrompt}}
	history := req.History
	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}
	for _, m := range history {
		messages = append(messages, aiChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, aiChatMessage{Role: "user", Content: req.Message})

	reqBody := map[string]interface{}{
		"model":       s.config.Model,
		"messages":    messages,
		"temperature": 0.7,
	}
	jsonData, _ := json.Marshal(reqBody)

	httpReq, err := http.NewRequest("POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+user.OpenAIAPIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}
	if completion.Error != nil {
		return "", fmt.Errorf("AI API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
