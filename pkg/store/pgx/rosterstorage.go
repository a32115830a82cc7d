package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// RosterDBStorage implements store.RosterStorage on PostgreSQL. Notes are
// stored as text and never interpreted here.
type RosterDBStorage struct {
	conn pgxIConn
}

var _ store.RosterStorage = (*RosterDBStorage)(nil)

// NewRosterDBStorage wraps a pool, connection or transaction.
func NewRosterDBStorage(conn pgxIConn) *RosterDBStorage {
	return &RosterDBStorage{conn: conn}
}

const listStudentsSQL = `
SELECT id, school_id, name, notes
FROM students
WHERE school_id = $1
ORDER BY name, id;
`

const getStudentSQL = `
SELECT id, school_id, name, notes
FROM students
WHERE school_id = $1 AND id = $2;
`

const listGuardiansSQL = `
SELECT id, student_id, name, relation, email, phone
FROM guardians
WHERE student_id = ANY($1::text[])
ORDER BY student_id, created_at, id;
`

const updateStudentNotesSQL = `
UPDATE students
SET notes = $2, updated_at = now()
WHERE id = $1;
`

func scanStudent(row pgxv5.Row) (common.Student, error) {
	var s common.Student
	if err := row.Scan(&s.ID, &s.SchoolID, &s.Name, &s.Notes); err != nil {
		return common.Student{}, err
	}
	return s, nil
}

func (s *RosterDBStorage) ListStudents(ctx context.Context, schoolID string) ([]common.Student, error) {
	rows, err := s.conn.Query(ctx, listStudentsSQL, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := make([]common.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

func (s *RosterDBStorage) GetStudent(ctx context.Context, schoolID, studentID string) (common.Student, error) {
	st, err := scanStudent(s.conn.QueryRow(ctx, getStudentSQL, schoolID, studentID))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Student{}, store.ErrNotFound
		}
		return common.Student{}, fmt.Errorf("failed to get student: %w", err)
	}
	return st, nil
}

func (s *RosterDBStorage) ListGuardians(ctx context.Context, studentIDs []string) ([]common.Guardian, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, listGuardiansSQL, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query guardians: %w", err)
	}
	defer rows.Close()

	var guardians []common.Guardian
	for rows.Next() {
		var (
			g            common.Guardian
			relation     string
			email, phone *string
		)
		if err := rows.Scan(&g.ID, &g.StudentID, &g.Name, &relation, &email, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan guardian: %w", err)
		}
		g.Relation = common.GuardianKind(relation)
		if email != nil {
			g.Email = *email
		}
		if phone != nil {
			g.Phone = *phone
		}
		guardians = append(guardians, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guardians: %w", err)
	}
	return guardians, nil
}

func (s *RosterDBStorage) UpdateStudentNotes(ctx context.Context, studentID, blob string) error {
	tag, err := s.conn.Exec(ctx, updateStudentNotesSQL, studentID, util.SanitizePostgresText(blob))
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logger.Warn("[Store] Notes update matched no student", "student_id", studentID)
		return store.ErrNotFound
	}
	return nil
}
