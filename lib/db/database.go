package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
)

type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineSqlite3  Engine = "sqlite3"

	configKeyDatabase convCfg.ConfigKey = "database"
)

var ErrUnsupportedEngine = errors.New("unsupported database engine")

type Connection struct {
	Engine   Engine `json:"engine" yaml:"engine"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	InMemory bool   `json:"in_memory" yaml:"in_memory"`
	File     string `json:"file" yaml:"file"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
}

// DB is an open database together with the engine it runs on.
type DB struct {
	*sql.DB
	Engine Engine
}

func (conn Connection) Open() (db *DB, err error) {

	var sqlDB *sql.DB

	switch conn.Engine {
	case EnginePostgres:
		sslMode := conn.SSLMode
		if sslMode == "" {
			sslMode = "require"
		}
		sqlDB, err = sql.Open(
			"postgres",
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				conn.Host, conn.Port, conn.Username, conn.Password, conn.Database, sslMode,
			),
		)
	case EngineSqlite3:
		switch {
		case conn.InMemory:
			sqlDB, err = sql.Open("sqlite3", ":memory:")
			if err == nil {
				// every pooled connection would see its own empty database
				sqlDB.SetMaxOpenConns(1)
			}
		case conn.File != "":
			sqlDB, err = sql.Open("sqlite3", "file:"+conn.File+"?_busy_timeout=5000")
		default:
			err = errors.New("sqlite connection needs either in_memory or file")
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedEngine, conn.Engine)
	}
	if err != nil {
		return
	}

	db = &DB{DB: sqlDB, Engine: conn.Engine}
	return
}

// OpenFromConfig opens the connection configured under "database"
// (JSON, or YAML when the key file is database.yaml).
func OpenFromConfig(ctx convCtx.Context) (db *DB, err error) {
	ctx = ctx.WithScope("db.OpenFromConfig")
	defer ctx.Exit(&err)

	key := configKeyDatabase
	if convCfg.Has(configKeyDatabase + ".yaml") {
		key = configKeyDatabase + ".yaml"
	}

	conn, err := convCfg.Object[Connection](key)
	if err != nil {
		return
	}

	db, err = conn.Open()
	if err != nil {
		return
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		db = nil
		return
	}

	ctx.Logger().Info("database ready", "engine", conn.Engine, "host", conn.Host, "database", conn.Database)

	return
}
