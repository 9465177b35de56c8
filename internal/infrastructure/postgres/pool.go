package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Gestion-api/pkg/config"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// slowQuery umbral a partir del cual una consulta se registra en warn.
const slowQuery = 500 * time.Millisecond

// NewPool abre el pool de PostgreSQL. DATABASE_URL tiene prioridad sobre DB_HOST/DB_PORT/...
// El dial prefiere IPv4: en contenedores sin IPv6 el host puede resolver solo AAAA.
func NewPool(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.ConnConfig.DialFunc = dialIPv4
	poolConfig.ConnConfig.Tracer = &queryTracer{log: log.Component("postgres")}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "gestion-api"

	poolConfig.MaxConns = 25
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal (costos de equipos, valor estimado de leads).
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB (%s): %w", redactedHost(cfg), err)
	}
	return pool, nil
}

func dialIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip := lookupIPv4(ctx, host); ip != "" {
		return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
	}
	return d.DialContext(ctx, network, addr)
}

// lookupIPv4 "" si el host no tiene registro A.
func lookupIPv4(ctx context.Context, host string) string {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host
		}
		return ""
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return ""
	}
	return ips[0].String()
}

// redactedHost host:puerto sin credenciales, para mensajes de error.
func redactedHost(cfg config.DBConfig) string {
	if cfg.DatabaseURL == "" {
		return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return "DATABASE_URL"
	}
	return u.Host
}

type traceKey struct{}

type traceStart struct {
	sql string
	at  time.Time
}

// queryTracer registra consultas lentas o fallidas. Los argumentos no se registran.
type queryTracer struct {
	log *logger.Logger
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, at: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)
	switch {
	case data.Err != nil && !isNoRows(data.Err):
		t.log.Debug().Err(data.Err).Dur("elapsed", elapsed).Str("sql", start.sql).Msg("consulta fallida")
	case elapsed >= slowQuery:
		t.log.Warn().Dur("elapsed", elapsed).Str("sql", start.sql).Msg("consulta lenta")
	}
}
