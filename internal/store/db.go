package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Report struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Content      string   `json:"content"`
	UploadedAt   string   `json:"uploadedAt"`
}

var ErrDuplicateReport = errors.New("report already exists")

func Open(dsn string) (*sql.DB, error) {
	// Open a MySQL connection pool for report storage.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)
	return db, nil
}

// Init creates the tables when migrations have not been run.
func Init(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS members (
			id VARCHAR(128) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at VARCHAR(32) NOT NULL
		);
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id CHAR(36) PRIMARY KEY,
			title VARCHAR(512) NOT NULL,
			participants JSON NOT NULL,
			content LONGTEXT NOT NULL,
			uploaded_at VARCHAR(32) NOT NULL
		);
	`)
	return err
}

func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SQL is the MySQL-backed store.
type SQL struct {
	DB *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{DB: db}
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQL) ListMembers(ctx context.Context, skip, limit int) ([]Member, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name FROM members ORDER BY created_at, id LIMIT ? OFFSET ?`,
		limit, skip,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// InsertReport assigns the ID and upload time and persists the report.
func (s *SQL) InsertReport(ctx context.Context, r Report) (Report, error) {
	r.ID = uuid.NewString()
	r.UploadedAt = NowISO()
	participants, err := encodeParticipants(r.Participants)
	if err != nil {
		return Report{}, err
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO reports (id, title, participants, content, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Title, participants, r.Content, r.UploadedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Report{}, fmt.Errorf("%w: %s", ErrDuplicateReport, r.ID)
		}
		return Report{}, err
	}
	return r, nil
}

func (s *SQL) ListReports(ctx context.Context) ([]Report, error) {
	return s.queryReports(ctx,
		`SELECT id, title, participants, content, uploaded_at FROM reports ORDER BY uploaded_at, id`)
}

// ReportsFor returns the reports listing participant.
func (s *SQL) ReportsFor(ctx context.Context, participant string) ([]Report, error) {
	return s.queryReports(ctx,
		`SELECT id, title, participants, content, uploaded_at FROM reports
		 WHERE JSON_CONTAINS(participants, JSON_QUOTE(?))
		 ORDER BY uploaded_at, id`, participant)
}

func (s *SQL) queryReports(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		var r Report
		var participants string
		if err := rows.Scan(&r.ID, &r.Title, &participants, &r.Content, &r.UploadedAt); err != nil {
			return nil, err
		}
		if r.Participants, err = decodeParticipants(participants); err != nil {
			return nil, fmt.Errorf("report %s: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func encodeParticipants(p []string) (string, error) {
	if p == nil {
		p = []string{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeParticipants(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
