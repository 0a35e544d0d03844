package influxutils

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb "github.com/influxdata/influxdb/client/v2"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
)

const ImportMeasurement = "bank_import"

func CreateInfluxClient(secrets config.InfluxSecrets) (influxdb.Client, error) {
	return influxdb.NewHTTPClient(influxdb.HTTPConfig{
		Addr:     secrets.InfluxEndpoint,
		Username: secrets.InfluxUsername,
		Password: secrets.InfluxPassword,
	})
}

func CreateDatabase(influxClient influxdb.Client, name string) error {
	name = strings.Split(name, " ")[0]

	q := influxdb.NewQuery(fmt.Sprintf("CREATE DATABASE %s", name), "", "")
	response, err := influxClient.Query(q)
	if err != nil {
		return err
	}
	return response.Error()
}

// StatsWriter records one point per finished import.
type StatsWriter struct {
	client   influxdb.Client
	database string
}

func NewStatsWriter(client influxdb.Client, database string) *StatsWriter {
	return &StatsWriter{client: client, database: database}
}

// NewStatsWriterFromConfig returns nil when no endpoint is configured.
func NewStatsWriterFromConfig(conf config.InfluxConfig, secrets config.InfluxSecrets) (*StatsWriter, error) {
	if secrets.InfluxEndpoint == "" {
		klog.Info("influx endpoint not configured, import statistics are disabled")
		return nil, nil
	}

	client, err := CreateInfluxClient(secrets)
	if err != nil {
		return nil, fmt.Errorf("error creating influxdb client: %w", err)
	}

	if err := CreateDatabase(client, conf.Database); err != nil {
		klog.Warningf("failed to create influx database %s: %v", conf.Database, err)
	}

	return NewStatsWriter(client, conf.Database), nil
}

func (w *StatsWriter) RecordImport(ctx context.Context, stats financialimporter.ImportStats) error {
	bp, err := influxdb.NewBatchPoints(influxdb.BatchPointsConfig{
		Database:  w.database,
		Precision: "s",
	})
	if err != nil {
		return err
	}

	pt, err := ImportPoint(stats, time.Now())
	if err != nil {
		return err
	}
	bp.AddPoint(pt)

	return w.client.Write(bp)
}

func (w *StatsWriter) Close() error {
	return w.client.Close()
}

func ImportPoint(stats financialimporter.ImportStats, at time.Time) (*influxdb.Point, error) {
	tags := map[string]string{
		"source": string(stats.Source),
		"batch":  stats.BatchID,
	}
	fields := map[string]interface{}{
		"imported":    stats.Imported,
		"duplicates":  stats.Duplicates,
		"skipped":     stats.Skipped,
		"reconciled":  stats.Reconciled,
		"categorized": stats.Categorized,
	}
	return influxdb.NewPoint(ImportMeasurement, tags, fields, at)
}
