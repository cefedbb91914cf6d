// Package export serialises retrospectives to JSON and CSV files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"example.com/presencebot/internal/domain"
)

// Exporter writes retrospective files into a dedicated directory. File names
// carry the period and the report's generation timestamp so repeated exports
// never collide.
type Exporter struct {
	dir string
}

// NewExporter constructs an Exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// WriteJSON writes the full retrospective as pretty-printed JSON and returns
// the file path.
func (e *Exporter) WriteJSON(retro *domain.Retrospective) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	data, err := json.MarshalIndent(retro, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode retrospective: %w", err)
	}

	path := filepath.Join(e.dir, e.baseName(retro)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteCSV writes the three CSV tables (users, activities, temporal trends)
// and returns their paths in that order.
func (e *Exporter) WriteCSV(retro *domain.Retrospective) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	base := e.baseName(retro)
	users := filepath.Join(e.dir, base+"-usuarios.csv")
	activities := filepath.Join(e.dir, base+"-atividades.csv")
	trends := filepath.Join(e.dir, base+"-tendencias.csv")

	if err := writeCSVFile(users, userRows(retro)); err != nil {
		return nil, err
	}
	if err := writeCSVFile(activities, activityRows(retro)); err != nil {
		return nil, err
	}
	if err := writeCSVFile(trends, temporalRows(retro)); err != nil {
		return nil, err
	}
	return []string{users, activities, trends}, nil
}

func (e *Exporter) baseName(retro *domain.Retrospective) string {
	return fmt.Sprintf("retrospectiva-%s-%d", retro.Period, retro.GeneratedAt)
}

func writeCSVFile(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func userRows(retro *domain.Retrospective) [][]string {
	rows := [][]string{{
		"user_id", "username", "total_duration_ms", "sessions",
		"average_duration_ms", "solo_sessions", "group_sessions",
		"peak_hour", "peak_day", "favorite_activity",
	}}
	for _, u := range retro.Users {
		favorite := ""
		if len(u.Favorites) > 0 {
			favorite = u.Favorites[0].ActivityName
		}
		rows = append(rows, []string{
			u.UserID,
			u.Username,
			strconv.FormatInt(u.TotalDuration, 10),
			strconv.Itoa(u.SessionCount),
			strconv.FormatFloat(u.AverageDuration, 'f', 2, 64),
			strconv.Itoa(u.SoloSessions),
			strconv.Itoa(u.GroupSessions),
			strconv.Itoa(u.PeakHour),
			strconv.Itoa(u.PeakDay),
			favorite,
		})
	}
	return rows
}

func activityRows(retro *domain.Retrospective) [][]string {
	rows := [][]string{{
		"activity_name", "activity_type", "total_duration_ms",
		"sessions", "unique_users", "peak_hour", "peak_day",
	}}
	for _, a := range retro.Activities {
		rows = append(rows, []string{
			a.ActivityName,
			strconv.Itoa(a.ActivityType),
			strconv.FormatInt(a.TotalDuration, 10),
			strconv.Itoa(a.SessionCount),
			strconv.Itoa(a.UniqueUsers),
			strconv.Itoa(a.PeakHour),
			strconv.Itoa(a.PeakDay),
		})
	}
	return rows
}

func temporalRows(retro *domain.Retrospective) [][]string {
	rows := [][]string{{"bucket_type", "bucket", "duration_ms"}}
	for hour, duration := range retro.Temporal.ByHour {
		rows = append(rows, []string{"hour", strconv.Itoa(hour), strconv.FormatInt(duration, 10)})
	}
	for day, duration := range retro.Temporal.ByDay {
		rows = append(rows, []string{"day", strconv.Itoa(day), strconv.FormatInt(duration, 10)})
	}
	return rows
}
