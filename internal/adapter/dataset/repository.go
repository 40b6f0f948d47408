package dataset

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// entrevista maps the entrevistas table:
// entrevistas(id SERIAL PRIMARY KEY, titulo TEXT, resumen TEXT, transcripcion TEXT).
type entrevista struct {
	ID            int    `gorm:"primaryKey;autoIncrement"`
	Titulo        string `gorm:"type:text"`
	Resumen       string `gorm:"type:text"`
	Transcripcion string `gorm:"type:text"`
}

func (entrevista) TableName() string { return "entrevistas" }

const insertBatchSize = 200

var _ port.InterviewRepository = (*Repository)(nil)

// Repository stores interviews with gorm.
type Repository struct {
	db *gorm.DB
}

// Open connects to the dataset database. driver is "sqlite" (dsn is a file
// path) or "postgres".
func Open(driver, dsn string) (*Repository, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dataset driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset database: %w", err)
	}
	return &Repository{db: db}, nil
}

// Migrate creates the entrevistas table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&entrevista{}); err != nil {
		return fmt.Errorf("failed to migrate entrevistas: %w", err)
	}
	return nil
}

// Insert appends interviews. IDs are assigned by the database.
func (r *Repository) Insert(ctx context.Context, interviews []domain.Interview) (int, error) {
	if len(interviews) == 0 {
		return 0, nil
	}
	rows := make([]entrevista, len(interviews))
	for i, iv := range interviews {
		rows[i] = entrevista{
			Titulo:        iv.Title,
			Resumen:       iv.Summary,
			Transcripcion: iv.Transcript,
		}
	}
	res := r.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert interviews: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// List returns up to limit interviews in id order. limit <= 0 means all.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.Interview, error) {
	var rows []entrevista
	q := r.db.WithContext(ctx).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}

	out := make([]domain.Interview, len(rows))
	for i, row := range rows {
		out[i] = domain.Interview{
			ID:         row.ID,
			Title:      row.Titulo,
			Summary:    row.Resumen,
			Transcript: row.Transcripcion,
		}
	}
	return out, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entrevista{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
