package data

import (
	"time"

	"gorm.io/gorm"
)

// Outcomes a recorded session can end with.
const (
	OutcomePlaying    = "playing"
	OutcomeClientQuit = "client_quit"
	OutcomeKicked     = "kicked"
	OutcomeError      = "error"
)

// Session is one login recorded in the ledger: who connected, as what, and
// how the connection ended.
type Session struct {
	ID         uint64 `gorm:"primaryKey"`
	Username   string `gorm:"not null"`
	UUID       string `gorm:"not null"`
	Protocol   int32
	RemoteAddr string
	Compressed bool
	Outcome    string
	StartedAt  time.Time
	EndedAt    time.Time
}

// RecordLogin persists a new session in the playing state.
func RecordLogin(db *gorm.DB, session *Session) error {
	session.StartedAt = time.Now()
	session.Outcome = OutcomePlaying
	return db.Create(session).Error
}

// CloseSession marks how a session ended.
func CloseSession(db *gorm.DB, session *Session, outcome string) error {
	session.EndedAt = time.Now()
	session.Outcome = outcome
	return db.Save(session).Error
}

// FindSessionsByUsername returns every recorded session for a player name,
// newest first.
func FindSessionsByUsername(db *gorm.DB, username string) ([]Session, error) {
	var sessions []Session
	err := db.Where("username = ?", username).Order("started_at desc").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
