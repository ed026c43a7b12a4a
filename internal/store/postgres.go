package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
)

type sessionRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Owner     string    `gorm:"index;size:255;not null"`
	Title     string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"index;not null"`
}

func (sessionRow) TableName() string { return "chat_sessions" }

type turnRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"uniqueIndex:idx_turn_position;size:36;not null"`
	Position  int       `gorm:"uniqueIndex:idx_turn_position;not null"`
	Role      string    `gorm:"size:16;not null"`
	Text      string    `gorm:"type:text"`
	Image     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (turnRow) TableName() string { return "chat_turns" }

type profileRow struct {
	Owner     string `gorm:"primaryKey;size:255"`
	ProfileID string `gorm:"primaryKey;size:64"`
	Data      string `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (profileRow) TableName() string { return "user_profiles" }

// Postgres stores transcripts and profiles through gorm.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres opens dsn and migrates the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&sessionRow{}, &turnRow{}, &profileRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Create inserts the session and its initial turns in one transaction.
func (p *Postgres) Create(ctx context.Context, session *model.Session) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := sessionRow{
			ID:        session.ID,
			Owner:     session.Owner,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create session: %w", err)
		}
		return insertTurns(tx, session.ID, 0, session.Turns)
	})
}

// Append locks the session row so that concurrent appends are serialised and
// positions stay dense.
func (p *Postgres) Append(ctx context.Context, owner, sessionID string, turns ...model.Turn) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sessionRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner = ?", sessionID, owner).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}

		var count int64
		if err := tx.Model(&turnRow{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count turns: %w", err)
		}

		if err := insertTurns(tx, sessionID, int(count), turns); err != nil {
			return err
		}

		return tx.Model(&row).Update("updated_at", time.Now()).Error
	})
}

func insertTurns(tx *gorm.DB, sessionID string, start int, turns []model.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	rows := make([]turnRow, len(turns))
	for i, t := range turns {
		rows[i] = turnRow{
			SessionID: sessionID,
			Position:  start + i,
			Role:      string(t.Role),
			Text:      t.Text,
			Image:     t.Image,
			CreatedAt: t.CreatedAt,
		}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert turns: %w", err)
	}
	return nil
}

// Get loads the session with its turns in position order.
func (p *Postgres) Get(ctx context.Context, owner, sessionID string) (*model.Session, error) {
	db := p.db.WithContext(ctx)

	var row sessionRow
	err := db.Where("id = ? AND owner = ?", sessionID, owner).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rows []turnRow
	if err := db.Where("session_id = ?", sessionID).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}

	s := &model.Session{
		ID:        row.ID,
		Owner:     row.Owner,
		Title:     row.Title,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Turns:     make([]model.Turn, len(rows)),
	}
	for i, r := range rows {
		s.Turns[i] = model.Turn{Role: model.Role(r.Role), Text: r.Text, Image: r.Image, CreatedAt: r.CreatedAt}
	}
	return s, nil
}

// List returns the owner's sessions, most recently updated first.
func (p *Postgres) List(ctx context.Context, owner string) ([]model.SessionSummary, error) {
	var out []model.SessionSummary
	err := p.db.WithContext(ctx).
		Table("chat_sessions AS s").
		Select("s.id AS id, s.title AS title, s.created_at AS created_at, s.updated_at AS updated_at, COUNT(t.id) AS turn_count").
		Joins("LEFT JOIN chat_turns t ON t.session_id = s.id").
		Where("s.owner = ?", owner).
		Group("s.id").
		Order("s.updated_at DESC, s.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return out, nil
}

// Delete removes the session and its turns.
func (p *Postgres) Delete(ctx context.Context, owner, sessionID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner = ?", sessionID, owner).Delete(&sessionRow{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("session_id = ?", sessionID).Delete(&turnRow{}).Error
	})
}

// SaveProfile upserts the profile keyed by its canonical ID.
func (p *Postgres) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	row := profileRow{
		Owner:     profile.Owner,
		ProfileID: profile.ID.String(),
		Data:      string(data),
		UpdatedAt: time.Now(),
	}
	err = p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns the owner's profile with a matching ID.
func (p *Postgres) GetProfile(ctx context.Context, owner string, id model.ProfileID) (*model.Profile, error) {
	var row profileRow
	err := p.db.WithContext(ctx).Where("owner = ? AND profile_id = ?", owner, id.String()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return decodeProfile(owner, row.Data)
}

// ListProfiles returns the owner's profiles.
func (p *Postgres) ListProfiles(ctx context.Context, owner string) ([]model.Profile, error) {
	var rows []profileRow
	if err := p.db.WithContext(ctx).Where("owner = ?", owner).Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]model.Profile, 0, len(rows))
	for _, r := range rows {
		prof, err := decodeProfile(owner, r.Data)
		if err != nil {
			continue
		}
		out = append(out, *prof)
	}
	return out, nil
}

// DeleteProfile removes the owner's profile with a matching ID.
func (p *Postgres) DeleteProfile(ctx context.Context, owner string, id model.ProfileID) error {
	res := p.db.WithContext(ctx).Where("owner = ? AND profile_id = ?", owner, id.String()).Delete(&profileRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeProfile(owner, data string) (*model.Profile, error) {
	var prof model.Profile
	if err := json.Unmarshal([]byte(data), &prof); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	prof.Owner = owner
	return &prof, nil
}
