package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rainwatch/internal/domain/models"
	"rainwatch/pkg/clickhouse"
	"rainwatch/pkg/logger"
)

const insertBatchSize = 500

// ClickHouseArchive stores daily observations in ClickHouse. It serves
// the collection pipeline and the history fallback path.
type ClickHouseArchive struct {
	client   *clickhouse.Client
	database string
	log      *logger.Logger
}

// NewClickHouseArchive wraps an existing ClickHouse client.
func NewClickHouseArchive(client *clickhouse.Client, database string, log *logger.Logger) *ClickHouseArchive {
	if database == "" {
		database = "rainwatch"
	}
	return &ClickHouseArchive{client: client, database: database, log: log}
}

// Init creates the observations table if needed. The table is keyed by
// timestamp; ReplacingMergeTree collapses duplicate collections for the
// same moment.
func (a *ClickHouseArchive) Init(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, a.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.observations (
			ts DateTime,
			rainfall_mm Nullable(Float64),
			temperature_c Nullable(Float64)
		) ENGINE = ReplacingMergeTree()
		ORDER BY ts`, a.database),
	}
	if err := a.client.InitSchema(ctx, statements); err != nil {
		return fmt.Errorf("init observation schema: %w", err)
	}
	a.log.Info("observation archive ready", logger.String("database", a.database))
	return nil
}

// Store persists one observation.
func (a *ClickHouseArchive) Store(ctx context.Context, o *models.Observation) error {
	return a.StoreBatch(ctx, []*models.Observation{o})
}

// StoreBatch persists observations in chunked multi-row inserts.
func (a *ClickHouseArchive) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	for start := 0; start < len(obs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(obs) {
			end = len(obs)
		}
		if err := a.insertChunk(ctx, obs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (a *ClickHouseArchive) insertChunk(ctx context.Context, obs []*models.Observation) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s.observations (ts, rainfall_mm, temperature_c) VALUES ", a.database)

	args := make([]interface{}, 0, len(obs)*3)
	for i, o := range obs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, o.Timestamp, nullFloat(o.RainfallMM), nullFloat(o.TemperatureC))
	}

	if _, err := a.client.DB().ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert %d observations: %w", len(obs), err)
	}
	a.log.Debug("observations stored", logger.Int("count", len(obs)))
	return nil
}

// Query returns observations between from and to inclusive, ascending.
func (a *ClickHouseArchive) Query(ctx context.Context, from, to time.Time) (models.HistoricalSeries, error) {
	query := fmt.Sprintf(`SELECT ts, rainfall_mm, temperature_c
		FROM %s.observations FINAL
		WHERE ts >= ? AND ts <= ?
		ORDER BY ts ASC`, a.database)

	rows, err := a.client.DB().QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var series models.HistoricalSeries
	for rows.Next() {
		var (
			ts   time.Time
			rain sql.NullFloat64
			temp sql.NullFloat64
		)
		if err := rows.Scan(&ts, &rain, &temp); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		series = append(series, models.Observation{
			Timestamp:    ts,
			RainfallMM:   floatPtr(rain),
			TemperatureC: floatPtr(temp),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return series, nil
}

// Health pings the underlying connection.
func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.client.Health(ctx)
}

// Close releases the connection pool.
func (a *ClickHouseArchive) Close() error {
	return a.client.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
