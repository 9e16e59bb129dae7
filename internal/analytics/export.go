package analytics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export serializes a report in the requested format. Returns the bytes
// and the matching content type.
func Export(report *Report, format string) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return data, "application/json", nil
	case FormatCSV:
		data, err := exportCSV(report)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv", nil
	case FormatXLSX:
		data, err := exportXLSX(report)
		if err != nil {
			return nil, "", err
		}
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"section", "metric", "value"},
	}
	rows = append(rows, statRows("conversations", conversationRows(&report.Conversations))...)
	rows = append(rows, statRows("role_play", rolePlayRows(&report.RolePlay))...)
	rows = append(rows, statRows("tasks", taskRows(&report.Tasks))...)

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func exportXLSX(report *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][2]string
	}{
		{"Conversations", conversationRows(&report.Conversations)},
		{"Role_Playing", rolePlayRows(&report.RolePlay)},
		{"Tasks", taskRows(&report.Tasks)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			// The default sheet is renamed rather than replaced.
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return nil, fmt.Errorf("failed to create sheet: %w", err)
			}
		}

		f.SetCellValue(sheet.name, "A1", "metric")
		f.SetCellValue(sheet.name, "B1", "value")
		for row, pair := range sheet.rows {
			f.SetCellValue(sheet.name, fmt.Sprintf("A%d", row+2), pair[0])
			f.SetCellValue(sheet.name, fmt.Sprintf("B%d", row+2), pair[1])
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func statRows(section string, pairs [][2]string) [][]string {
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, []string{section, pair[0], pair[1]})
	}
	return rows
}

func conversationRows(s *ConversationStats) [][2]string {
	rows := [][2]string{
		{"total_conversations", strconv.Itoa(s.TotalConversations)},
		{"total_messages", strconv.Itoa(s.TotalMessages)},
		{"avg_message_length", formatFloat(s.AvgMessageLength)},
	}
	for _, role := range sortedKeys(s.MessagesByRole) {
		rows = append(rows, [2]string{"messages[" + role + "]", strconv.Itoa(s.MessagesByRole[role])})
	}
	for _, provider := range sortedKeys(s.ByProvider) {
		rows = append(rows, [2]string{"provider[" + provider + "]", strconv.Itoa(s.ByProvider[provider])})
	}
	for _, day := range sortedKeys(s.MessagesByDay) {
		rows = append(rows, [2]string{"day[" + day + "]", strconv.Itoa(s.MessagesByDay[day])})
	}
	return rows
}

func rolePlayRows(s *RolePlayStats) [][2]string {
	rows := [][2]string{
		{"total_sessions", strconv.Itoa(s.TotalSessions)},
		{"total_messages", strconv.Itoa(s.TotalMessages)},
		{"avg_message_length", formatFloat(s.AvgMessageLength)},
	}
	for _, agent := range sortedKeys(s.MessagesByAgent) {
		rows = append(rows, [2]string{"messages[" + agent + "]", strconv.Itoa(s.MessagesByAgent[agent])})
	}
	for _, pair := range sortedKeys(s.RolePairs) {
		rows = append(rows, [2]string{"role_pair[" + pair + "]", strconv.Itoa(s.RolePairs[pair])})
	}
	for _, day := range sortedKeys(s.MessagesByDay) {
		rows = append(rows, [2]string{"day[" + day + "]", strconv.Itoa(s.MessagesByDay[day])})
	}
	return rows
}

func taskRows(s *TaskStats) [][2]string {
	rows := [][2]string{
		{"total_runs", strconv.Itoa(s.TotalRuns)},
		{"total_tasks", strconv.Itoa(s.TotalTasks)},
		{"completed", strconv.Itoa(s.Completed)},
		{"failed", strconv.Itoa(s.Failed)},
		{"success_rate", formatFloat(s.SuccessRate)},
	}
	for _, day := range sortedKeys(s.TasksByDay) {
		rows = append(rows, [2]string{"day[" + day + "]", strconv.Itoa(s.TasksByDay[day])})
	}
	return rows
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
