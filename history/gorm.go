package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"gorm.io/driver/clickhouse"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/config"
)

// chatMessage is the chat_history table.
type chatMessage struct {
	ID             string    `gorm:"primaryKey;size:36"`
	UserID         string    `gorm:"size:64;index:idx_user_session"`
	SessionID      string    `gorm:"size:128;index:idx_user_session"`
	MessageType    string    `gorm:"size:8"`
	MessageContent string    `gorm:"type:text"`
	PDFCID         string    `gorm:"column:pdf_cid;size:128"`
	Timestamp      time.Time `gorm:"index"`
	// CreatedNs orders messages and is aggregated in session listings.
	CreatedNs int64 `gorm:"index"`
}

func (chatMessage) TableName() string { return "chat_history" }

func (m *chatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m chatMessage) toMessage() Message {
	return Message{
		ID:        m.ID,
		UserID:    m.UserID,
		SessionID: m.SessionID,
		Type:      m.MessageType,
		Content:   m.MessageContent,
		PDFCID:    m.PDFCID,
		Timestamp: m.Timestamp,
	}
}

// GormStore persists transcripts through gorm.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemStore(), nil
	}
	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	tries := uint(orDefault(cfg.ConnectTries, 3))
	err = retry.Do(
		func() error {
			var openErr error
			db, openErr = gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
			if openErr != nil {
				return openErr
			}
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				return dbErr
			}
			return sqlDB.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(tries),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("history: connect %s attempt %d failed: %v", cfg.Driver, n+1, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s history store failed, err: %w", cfg.Driver, err)
	}
	store, err := NewGormStore(db)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required for %s history driver", driver)
	}
	switch strings.ToLower(driver) {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "clickhouse":
		return clickhouse.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
}

// NewGormStore migrates the chat_history table on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&chatMessage{}); err != nil {
		return nil, fmt.Errorf("migrate chat_history failed, err: %w", err)
	}
	return &GormStore{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) SaveMessage(ctx context.Context, msg Message) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	row := chatMessage{
		ID:             msg.ID,
		UserID:         msg.UserID,
		SessionID:      msg.SessionID,
		MessageType:    msg.Type,
		MessageContent: msg.Content,
		PDFCID:         msg.PDFCID,
		Timestamp:      ts,
		CreatedNs:      ts.UnixNano(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save chat message failed, err: %w", err)
	}
	return nil
}

func (s *GormStore) History(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(orDefault(limit, defaultHistoryLimit))
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID).Order("created_ns ASC")
	} else {
		q = q.Order("created_ns DESC")
	}
	var rows []chatMessage
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load chat history failed, err: %w", err)
	}
	out := make([]Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toMessage())
	}
	return out, nil
}

type sessionRow struct {
	SessionID    string
	LastNs       int64
	MessageCount int
}

func (s *GormStore) Sessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	var rows []sessionRow
	err := s.db.WithContext(ctx).Model(&chatMessage{}).
		Select("session_id, MAX(created_ns) AS last_ns, COUNT(*) AS message_count").
		Where("user_id = ?", userID).
		Group("session_id").
		Order("last_ns DESC").
		Limit(orDefault(limit, defaultSessionsLimit)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list chat sessions failed, err: %w", err)
	}

	out := make([]SessionSummary, 0, len(rows))
	for _, r := range rows {
		sum := SessionSummary{
			SessionID:    r.SessionID,
			LastMessage:  time.Unix(0, r.LastNs),
			MessageCount: r.MessageCount,
		}
		var first chatMessage
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND session_id = ? AND message_type = ?", userID, r.SessionID, TypeUser).
			Order("created_ns ASC").
			Take(&first).Error
		switch {
		case err == nil:
			sum.FirstUserMessage = preview(first.MessageContent)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			logger.Warnf("history: first message of %s: %v", r.SessionID, err)
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *GormStore) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	res := s.db.WithContext(ctx).Where("user_id = ? AND session_id = ?", userID, sessionID).Delete(&chatMessage{})
	if res.Error != nil {
		return false, fmt.Errorf("delete chat session failed, err: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Clear(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&chatMessage{}).Error; err != nil {
		return fmt.Errorf("clear chat history failed, err: %w", err)
	}
	return nil
}
