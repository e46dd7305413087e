package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"flowgoals_backend/internal/config"
	"flowgoals_backend/internal/model"
	"flowgoals_backend/pkg/logger"

	"go.uber.org/zap"
)

// PlannerService 调用大模型把目标描述拆成逐天主题。
// 外部服务不可用或返回不合法时必须退回到确定性的本地生成，
// 目标创建永远不能因为规划器失败而失败。
type PlannerService struct {
	config config.AIConfig
	client *http.Client
}

func NewPlannerService(cfg config.AIConfig) *PlannerService {
	return &PlannerService{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// GoalDraft 规划输入
type GoalDraft struct {
	Type         model.GoalType `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	TotalDays    int            `json:"totalDays"`
	DailyMinutes int            `json:"dailyMinutes"`
}

// DayPlan 单天的任务描述，DayNumber 保证 1..TotalDays 连续
type DayPlan struct {
	DayNumber        int
	Title            string
	Description      string
	EstimatedMinutes int
	Phase            string
	ActionItems      []string
	Resources        model.Resources
	SkillProgression string
}

// TimelineCheck 天数是否过于仓促的建议
type TimelineCheck struct {
	IsRushed      bool   `json:"isRushed"`
	SuggestedDays int    `json:"suggestedDays"`
	Message       string `json:"message"`
}

const minimumDays = 3

// CheckTimeline 各目标类型的最小建议天数
func CheckTimeline(goalType model.GoalType, totalDays int) TimelineCheck {
	if totalDays < minimumDays {
		return TimelineCheck{
			IsRushed:      true,
			SuggestedDays: minimumDays,
			Message:       fmt.Sprintf("Minimum %d days recommended for this goal type to allow proper skill development.", minimumDays),
		}
	}
	return TimelineCheck{
		IsRushed:      false,
		SuggestedDays: totalDays,
		Message:       "Timeline accepted.",
	}
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type plannedTopic struct {
	DayNumber        int    `json:"dayNumber"`
	Topic            string `json:"topic"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// GeneratePlan 生成完整的逐天计划，长度恒等于 draft.TotalDays
func (s *PlannerService) GeneratePlan(draft GoalDraft) []DayPlan {
	topics, err := s.requestTopics(draft)
	if err != nil {
		logger.Log.Warn("AI planning failed, falling back to generic plan",
			zap.String("goal", draft.Title), zap.Error(err))
		return FallbackPlan(draft)
	}
	return buildPlan(draft, topics)
}

func (s *PlannerService) requestTopics(draft GoalDraft) ([]plannedTopic, error) {
	if s.config.APIKey == "" || s.config.BaseURL == "" {
		return nil, fmt.Errorf("planner not configured")
	}

	systemPrompt := "You are an expert learning curriculum designer creating calm, achievable daily topics. " +
		"One focused topic per day, building progressively from simple to advanced. " +
		"Language is calm and encouraging, never pressuring."

	userPrompt := fmt.Sprintf(`Create a %d-day learning journey for: "%s"%s

REQUIREMENTS:
- Generate %d unique daily topics
- Each topic should be specific and focused on ONE concept
- Topics progress naturally: beginner -> intermediate -> advanced
- Daily time available: %d minutes

Return ONLY a valid JSON array:
[{"dayNumber": 1, "topic": "Specific topic name", "estimatedMinutes": %d}, ...]
No markdown, no explanations, just the JSON array.`,
		draft.TotalDays, draft.Title, describeSuffix(draft.Description),
		draft.TotalDays, draft.DailyMinutes, draft.DailyMinutes)

	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []aiChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"temperature": 0.7,
	}

	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, err
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("AI API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("AI API returned no choices")
	}

	content := completion.Choices[0].Message.Content
	content = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(content, "```json", ""), "```", ""))

	var topics []plannedTopic
	if err := json.Unmarshal([]byte(content), &topics); err != nil {
		return nil, fmt.Errorf("malformed planner output: %w", err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("planner returned empty plan")
	}
	return topics, nil
}

func describeSuffix(description string) string {
	if description == "" {
		return ""
	}
	return " - " + description
}

// buildPlan 把模型输出规范化成 1..TotalDays 的连续序列：
// 排序、截断，缺口用本地主题补齐
func buildPlan(draft GoalDraft, topics []plannedTopic) []DayPlan {
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].DayNumber < topics[j].DayNumber })

	fallbackTitles := skillTopics(strings.ToLower(draft.Title), draft.TotalDays)
	phases := calculatePhases(draft.TotalDays)

	plan := make([]DayPlan, 0, draft.TotalDays)
	for day := 1; day <= draft.TotalDays; day++ {
		topic := ""
		minutes := draft.DailyMinutes
		if day-1 < len(topics) {
			topic = strings.TrimSpace(topics[day-1].Topic)
			if topics[day-1].EstimatedMinutes > 0 {
				minutes = topics[day-1].EstimatedMinutes
			}
		}
		if topic == "" {
			topic = fallbackTitles[day-1]
		}
		plan = append(plan, newDayPlan(draft, day, topic, minutes, phases))
	}
	return plan
}

// FallbackPlan 确定性的本地计划，关键字匹配主题库
func FallbackPlan(draft GoalDraft) []DayPlan {
	titles := skillTopics(strings.ToLower(draft.Title), draft.TotalDays)
	phases := calculatePhases(draft.TotalDays)

	plan := make([]DayPlan, 0, draft.TotalDays)
	for day := 1; day <= draft.TotalDays; day++ {
		plan = append(plan, newDayPlan(draft, day, titles[day-1], draft.DailyMinutes, phases))
	}
	return plan
}

func newDayPlan(draft GoalDraft, day int, topic string, minutes int, phases []phase) DayPlan {
	return DayPlan{
		DayNumber:        day,
		Title:            topic,
		Description:      fmt.Sprintf("Focus on %s", topic),
		EstimatedMinutes: minutes,
		Phase:            phaseForDay(phases, day),
		ActionItems:      []string{fmt.Sprintf("Study %s (%d min)", topic, minutes)},
		Resources:        GenerateResources(topic, draft.Title),
		SkillProgression: fmt.Sprintf("Can apply %s", topic),
	}
}

type phase struct {
	Name     string
	StartDay int
	EndDay   int
}

func calculatePhases(totalDays int) []phase {
	if totalDays <= 3 {
		return []phase{
			{Name: "Phase 1: Foundation & Quick Wins", StartDay: 1, EndDay: totalDays},
		}
	}

	if totalDays <= 7 {
		foundationEnd := ceilFrac(totalDays, 0.4)
		return []phase{
			{Name: "Phase 1: Foundation", StartDay: 1, EndDay: foundationEnd},
			{Name: "Phase 2: Application", StartDay: foundationEnd + 1, EndDay: totalDays},
		}
	}

	if totalDays <= 14 {
		foundationEnd := ceilFrac(totalDays, 0.25)
		coreEnd := ceilFrac(totalDays, 0.6)
		return []phase{
			{Name: "Phase 1: Foundation", StartDay: 1, EndDay: foundationEnd},
			{Name: "Phase 2: Core Skills", StartDay: foundationEnd + 1, EndDay: coreEnd},
			{Name: "Phase 3: Project", StartDay: coreEnd + 1, EndDay: totalDays},
		}
	}

	foundationEnd := ceilFrac(totalDays, 0.2)
	coreEnd := ceilFrac(totalDays, 0.5)
	applicationEnd := ceilFrac(totalDays, 0.8)
	return []phase{
		{Name: "Phase 1: Foundation", StartDay: 1, EndDay: foundationEnd},
		{Name: "Phase 2: Core Skills", StartDay: foundationEnd + 1, EndDay: coreEnd},
		{Name: "Phase 3: Application", StartDay: coreEnd + 1, EndDay: applicationEnd},
		{Name: "Phase 4: Mastery Project", StartDay: applicationEnd + 1, EndDay: totalDays},
	}
}

func ceilFrac(total int, frac float64) int {
	v := int(float64(total) * frac)
	if float64(total)*frac > float64(v) {
		v++
	}
	return v
}

func phaseForDay(phases []phase, day int) string {
	for _, p := range phases {
		if day >= p.StartDay && day <= p.EndDay {
			return p.Name
		}
	}
	return "Phase 1: Foundation"
}

// topicLibrary 常见技能的逐天主题，fallback 时按关键字命中
var topicLibrary = map[string][]string{
	"python": {
		"Variables and Data Types", "Conditionals and If Statements", "Loops (For and While)",
		"Functions and Parameters", "Lists and Arrays", "Dictionaries and Sets",
		"String Manipulation", "File I/O Operations", "Error Handling and Exceptions",
		"Object-Oriented Programming Basics", "Classes and Objects", "Inheritance and Polymorphism",
		"Modules and Packages", "List Comprehensions", "Lambda Functions", "Decorators",
		"Generators", "Working with APIs", "Data Analysis with Pandas", "Building a Complete Project",
	},
	"javascript": {
		"Variables (let, const, var)", "Data Types and Operators", "Conditionals and Comparison",
		"Loops (for, while, forEach)", "Functions and Arrow Functions", "Arrays and Array Methods",
		"Objects and Object Methods", "DOM Manipulation Basics", "Event Listeners and Handling",
		"ES6 Features", "Promises and Async/Await", "Fetch API and AJAX", "Local Storage",
		"Array Destructuring", "Spread and Rest Operators", "Modules (Import/Export)",
		"Error Handling", "Working with JSON", "Building a Web App", "Final Project",
	},
	"react": {
		"JSX and Components", "Props and State", "Event Handling", "Conditional Rendering",
		"Lists and Keys", "Forms and Controlled Components", "Lifecycle Methods",
		"Hooks - useState", "Hooks - useEffect", "Hooks - useContext", "Custom Hooks",
		"React Router Basics", "Navigation and Links", "API Integration", "State Management",
		"Component Composition", "Performance Optimization", "Testing React Components",
		"Deployment", "Full Stack Project",
	},
	"singing": {
		"Breathing Techniques and Posture", "Vocal Warmups and Scales", "Pitch Control and Ear Training",
		"Tone Quality and Resonance", "Basic Melodies and Simple Songs", "Vocal Range Expansion",
		"Articulation and Diction", "Rhythm and Timing", "Dynamics (Soft and Loud)",
		"Vibrato Technique", "Song Interpretation", "Learning Your First Full Song",
		"Performance Techniques", "Microphone Technique", "Harmony and Backing Vocals",
		"Genre-Specific Techniques", "Recording Basics", "Stage Presence",
		"Repertoire Building", "Live Performance Practice",
	},
	"guitar": {
		"Parts of Guitar and Tuning", "Basic Chords (G, C, D)", "Chord Changes and Transitions",
		"Strumming Patterns", "Basic Fingerpicking", "Reading Chord Charts", "Power Chords",
		"Barre Chords Basics", "Minor Chords", "Rhythm Patterns", "Basic Scales",
		"Learning Your First Song", "Fingerstyle Techniques", "Hammer-ons and Pull-offs",
		"Slides and Bends", "Palm Muting", "Music Theory Basics", "Improvisation",
		"Song Writing Basics", "Performance Practice",
	},
	"piano": {
		"Piano Keys and Posture", "Right Hand Position and C Major Scale", "Left Hand Bass Notes",
		"Both Hands Together", "Reading Sheet Music Basics", "Basic Chords (C, F, G)",
		"Chord Progressions", "Rhythm and Timing", "Dynamics and Expression", "Pedal Technique",
		"Minor Scales", "Arpeggios", "Hand Independence", "Sight Reading", "Your First Song",
		"Music Theory Fundamentals", "Advanced Chords", "Improvisation",
		"Performance Techniques", "Recital Preparation",
	},
	"gym": {
		"Gym Equipment Tour", "Proper Form Basics", "Chest Exercises", "Back Exercises",
		"Shoulder Exercises", "Arm Exercises", "Leg Exercises", "Core Strengthening",
		"Compound Movements", "Progressive Overload", "Workout Split Basics", "Cardio Integration",
		"Rest and Recovery", "Nutrition Basics", "Tracking Progress", "Advanced Techniques",
		"Injury Prevention", "Flexibility Work", "Goal Setting", "Custom Workout Plan",
	},
	"yoga": {
		"Basic Breathing (Pranayama)", "Mountain Pose and Alignment", "Sun Salutation A",
		"Standing Poses", "Balancing Poses", "Forward Folds", "Backbends", "Twists",
		"Hip Openers", "Seated Poses", "Inversions Basics", "Core Strengthening",
		"Arm Balances", "Restorative Poses", "Meditation Basics", "Flexibility Flow",
		"Strength Building", "Mind-Body Connection", "Full Practice Sequence",
		"Personal Practice Development",
	},
	"excel": {
		"Interface and Basic Formulas", "Cell References", "SUM, AVERAGE, COUNT", "IF Statements",
		"VLOOKUP and HLOOKUP", "Data Sorting and Filtering", "Conditional Formatting",
		"Charts and Graphs", "Pivot Tables Basics", "Advanced Pivot Tables", "Data Validation",
		"INDEX and MATCH", "Text Functions", "Date and Time Functions", "SUMIF and COUNTIF",
		"Array Formulas", "Macros Basics", "Data Analysis", "Dashboard Creation", "Real-World Project",
	},
	"powerbi": {
		"Power BI Interface and Setup", "Importing Data Sources", "Data Transformation Basics",
		"Creating Your First Visual", "Table and Matrix Visuals", "Chart Types and Usage",
		"Filters and Slicers", "DAX Basics", "Calculated Columns", "Measures and KPIs",
		"Relationships Between Tables", "Data Modeling", "Time Intelligence",
		"Advanced DAX Functions", "Dashboard Design Principles", "Interactive Reports",
		"Publishing and Sharing", "Row Level Security", "Performance Optimization",
		"Complete Dashboard Project",
	},
	"spanish": {
		"Basic Greetings and Introductions", "Numbers and Counting", "Present Tense Regular Verbs",
		"Common Nouns and Articles", "Adjectives and Descriptions", "Question Words",
		"Irregular Verbs (Ser, Estar)", "Family and Relationships", "Food and Restaurants",
		"Daily Routine Vocabulary", "Past Tense Basics", "Future Tense", "Directions and Locations",
		"Shopping and Money", "Weather and Seasons", "Hobbies and Free Time", "Making Plans",
		"Conversation Practice", "Cultural Topics", "Real Conversations",
	},
	"cooking": {
		"Knife Skills and Safety", "Basic Cutting Techniques", "Sauteing Basics",
		"Boiling and Blanching", "Roasting Vegetables", "Cooking Proteins", "Basic Sauces",
		"Seasoning and Flavoring", "Pasta from Scratch", "Rice Varieties", "Baking Basics",
		"Bread Making", "Eggs - All Methods", "Soups and Stocks", "Meal Prep Basics",
		"International Cuisines", "Desserts", "Plating and Presentation", "Menu Planning",
		"Full Course Meal",
	},
}

// skillTopics 返回恰好 totalDays 个主题，主题库不够时用通用会话补齐
func skillTopics(skillName string, totalDays int) []string {
	var matched []string
	for keyword, topics := range topicLibrary {
		if strings.Contains(skillName, keyword) {
			matched = topics
			break
		}
	}

	result := make([]string, 0, totalDays)
	for i := 1; i <= totalDays; i++ {
		if i-1 < len(matched) {
			result = append(result, matched[i-1])
			continue
		}
		stage := "Fundamentals"
		if float64(i) > float64(totalDays)*0.6 {
			stage = "Advanced Application"
		} else if float64(i) > float64(totalDays)*0.3 {
			stage = "Intermediate Techniques"
		}
		result = append(result, fmt.Sprintf("%s - Session %d", stage, i))
	}
	return result
}

// GenerateResources 按主题和技能关键字生成学习资源，纯函数。
// 调度器在任务记录缺资源时也用它按需补全。
func GenerateResources(topic, skillName string) model.Resources {
	resources := model.Resources{}
	skillLower := strings.ToLower(skillName)

	resources = append(resources, model.Resource{
		Type:    "video",
		Title:   topic + " - Tutorial",
		URL:     "https://www.youtube.com/results?search_query=" + url.QueryEscape(skillName+" "+topic+" tutorial"),
		Creator: "YouTube",
	})

	switch {
	case strings.Contains(skillLower, "python"):
		resources = append(resources,
			model.Resource{Type: "tutorial", Title: "Interactive Python Tutorial", URL: "https://www.freecodecamp.org/learn/scientific-computing-with-python/", Creator: "freeCodeCamp"},
			model.Resource{Type: "docs", Title: "Python Documentation", URL: "https://docs.python.org/3/", Creator: "Python.org"},
		)
	case strings.Contains(skillLower, "javascript") || strings.Contains(skillLower, "js"):
		resources = append(resources,
			model.Resource{Type: "tutorial", Title: "JavaScript Algorithms and Data Structures", URL: "https://www.freecodecamp.org/learn/javascript-algorithms-and-data-structures/", Creator: "freeCodeCamp"},
			model.Resource{Type: "docs", Title: "MDN JavaScript Docs", URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript", Creator: "MDN"},
		)
	case strings.Contains(skillLower, "react"):
		resources = append(resources,
			model.Resource{Type: "tutorial", Title: "React Tutorial", URL: "https://react.dev/learn", Creator: "React"},
			model.Resource{Type: "docs", Title: "React Documentation", URL: "https://react.dev/", Creator: "React"},
		)
	case strings.Contains(skillLower, "guitar") || strings.Contains(skillLower, "piano") ||
		strings.Contains(skillLower, "singing") || strings.Contains(skillLower, "music"):
		resources = append(resources,
			model.Resource{Type: "tutorial", Title: "Music Theory Lessons", URL: "https://www.musictheory.net/lessons", Creator: "MusicTheory.net"},
		)
	case strings.Contains(skillLower, "excel"):
		resources = append(resources,
			model.Resource{Type: "tutorial", Title: "Excel Training", URL: "https://support.microsoft.com/en-us/excel", Creator: "Microsoft"},
		)
	case strings.Contains(skillLower, "powerbi") || strings.Contains(skillLower, "power bi"):
		resources = append(resources,
			model.Resource{Type: "tutorial", Title: "Power BI Learning Path", URL: "https://learn.microsoft.com/en-us/power-bi/", Creator: "Microsoft Learn"},
		)
	case strings.Contains(skillLower, "cooking") || strings.Contains(skillLower, "cook"):
		resources = append(resources,
			model.Resource{Type: "article", Title: "Cooking Basics", URL: "https://www.allrecipes.com/recipes/17562/everyday-cooking/quick-and-easy/", Creator: "AllRecipes"},
		)
	default:
		resources = append(resources, model.Resource{
			Type:    "tutorial",
			Title:   "Learn " + topic,
			URL:     "https://www.google.com/search?q=" + url.QueryEscape(skillName+" "+topic+" free course tutorial"),
			Creator: "Web Search",
		})
	}

	return resources
}
