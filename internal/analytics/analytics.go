// Package analytics computes aggregates over saved history records and
// exports them in downloadable formats.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

// ConversationStats aggregates saved single-chat conversations.
type ConversationStats struct {
	TotalConversations int            `json:"total_conversations"`
	TotalMessages      int            `json:"total_messages"`
	AvgMessageLength   float64        `json:"avg_message_length"`
	MessagesByRole     map[string]int `json:"messages_by_role"`
	ByProvider         map[string]int `json:"by_provider"`
	MessagesByDay      map[string]int `json:"messages_by_day"`
}

// RolePlayStats aggregates saved role-play sessions.
type RolePlayStats struct {
	TotalSessions    int            `json:"total_sessions"`
	TotalMessages    int            `json:"total_messages"`
	AvgMessageLength float64        `json:"avg_message_length"`
	MessagesByAgent  map[string]int `json:"messages_by_agent"`
	RolePairs        map[string]int `json:"role_pairs"`
	MessagesByDay    map[string]int `json:"messages_by_day"`
}

// TaskStats aggregates saved task runs.
type TaskStats struct {
	TotalRuns   int            `json:"total_runs"`
	TotalTasks  int            `json:"total_tasks"`
	Completed   int            `json:"completed"`
	Failed      int            `json:"failed"`
	SuccessRate float64        `json:"success_rate"`
	TasksByDay  map[string]int `json:"tasks_by_day"`
}

// Report is the full analytics document served to the UI.
type Report struct {
	Conversations ConversationStats `json:"conversations"`
	RolePlay      RolePlayStats     `json:"role_play"`
	Tasks         TaskStats         `json:"tasks"`
}

// Compute builds a report from loaded history records. Aggregates are
// exact counts, not estimates.
func Compute(conversations []domain.ConversationRecord, rolePlays []domain.RolePlayRecord, taskRuns []domain.TaskRecord) *Report {
	report := &Report{
		Conversations: ConversationStats{
			MessagesByRole: map[string]int{},
			ByProvider:     map[string]int{},
			MessagesByDay:  map[string]int{},
		},
		RolePlay: RolePlayStats{
			MessagesByAgent: map[string]int{},
			RolePairs:       map[string]int{},
			MessagesByDay:   map[string]int{},
		},
		Tasks: TaskStats{
			TasksByDay: map[string]int{},
		},
	}

	var convChars int
	for _, record := range conversations {
		report.Conversations.TotalConversations++
		report.Conversations.ByProvider[string(record.Provider)]++
		if day := recordDay(record.Timestamp); day != "" {
			report.Conversations.MessagesByDay[day] += len(record.Messages)
		}
		for _, turn := range record.Messages {
			report.Conversations.TotalMessages++
			report.Conversations.MessagesByRole[turn.Role]++
			convChars += len(turn.Content)
		}
	}
	if report.Conversations.TotalMessages > 0 {
		report.Conversations.AvgMessageLength = float64(convChars) / float64(report.Conversations.TotalMessages)
	}

	var rpChars int
	for _, record := range rolePlays {
		report.RolePlay.TotalSessions++
		pair := fmt.Sprintf("%s / %s", record.AssistantRole, record.UserRole)
		report.RolePlay.RolePairs[pair]++
		if day := recordDay(record.Timestamp); day != "" {
			report.RolePlay.MessagesByDay[day] += len(record.Messages)
		}
		for _, turn := range record.Messages {
			report.RolePlay.TotalMessages++
			report.RolePlay.MessagesByAgent[turn.Role]++
			rpChars += len(turn.Content)
		}
	}
	if report.RolePlay.TotalMessages > 0 {
		report.RolePlay.AvgMessageLength = float64(rpChars) / float64(report.RolePlay.TotalMessages)
	}

	for _, run := range taskRuns {
		report.Tasks.TotalRuns++
		if day := recordDay(run.Timestamp); day != "" {
			report.Tasks.TasksByDay[day] += len(run.Tasks)
		}
		for _, task := range run.Tasks {
			report.Tasks.TotalTasks++
			switch task.Status {
			case domain.TaskStatusCompleted:
				report.Tasks.Completed++
			case domain.TaskStatusFailed:
				report.Tasks.Failed++
			}
		}
	}
	if report.Tasks.TotalTasks > 0 {
		report.Tasks.SuccessRate = float64(report.Tasks.Completed) / float64(report.Tasks.TotalTasks)
	}

	return report
}

// recordDay buckets a record timestamp into its calendar day. Records
// with an unparsable timestamp are left out of the time series.
func recordDay(ts string) string {
	t, err := time.Parse(domain.RecordTimeFormat, ts)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// sortedKeys returns map keys in stable order for tabular export.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
