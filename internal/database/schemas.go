package database

// schemas maps database names to their schema DDL. Schemas are compiled into
// the binary so migrations work regardless of working directory or deployment
// layout. Statements are idempotent (IF NOT EXISTS) so Migrate can run on
// every startup.
var schemas = map[string]string{
	"league":      leagueSchema,
	"predictions": predictionsSchema,
	"config":      configSchema,
	"cache":       cacheSchema,
}

// Schema returns the DDL for a named database. It panics on unknown names so
// a typo fails fast at startup rather than producing an empty store.
func Schema(name string) string {
	ddl, ok := schemas[name]
	if !ok {
		panic("unknown database schema: " + name)
	}
	return ddl
}

// leagueSchema holds the entity records the feature adapter reads:
// teams, players, games and injuries. Populated by external ingestion.
const leagueSchema = `
CREATE TABLE IF NOT EXISTS teams (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    abbreviation TEXT NOT NULL DEFAULT '',
    conference   TEXT NOT NULL DEFAULT '',
    division     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS players (
    id                TEXT PRIMARY KEY,
    team_id           TEXT NOT NULL REFERENCES teams(id),
    name              TEXT NOT NULL,
    position          TEXT NOT NULL DEFAULT '',
    efficiency_rating REAL NOT NULL DEFAULT 0,
    is_starter        INTEGER NOT NULL DEFAULT 0,
    created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id);

CREATE TABLE IF NOT EXISTS games (
    id           TEXT PRIMARY KEY,
    sport        TEXT NOT NULL,
    season       TEXT NOT NULL DEFAULT '',
    home_team_id TEXT NOT NULL REFERENCES teams(id),
    away_team_id TEXT NOT NULL REFERENCES teams(id),
    scheduled_at TIMESTAMP NOT NULL,
    status       TEXT NOT NULL DEFAULT 'scheduled',
    home_score   INTEGER,
    away_score   INTEGER,
    finished_at  TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_games_home_team ON games(home_team_id, scheduled_at);
CREATE INDEX IF NOT EXISTS idx_games_away_team ON games(away_team_id, scheduled_at);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status, scheduled_at);

CREATE TABLE IF NOT EXISTS injuries (
    id          TEXT PRIMARY KEY,
    player_id   TEXT NOT NULL REFERENCES players(id),
    team_id     TEXT NOT NULL REFERENCES teams(id),
    severity    TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'active',
    reported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_injuries_team ON injuries(team_id, status);
`

// predictionsSchema is the append-only prediction history. Rows are inserted
// once by the engine and annotated exactly once by the validator; they are
// never deleted.
const predictionsSchema = `
CREATE TABLE IF NOT EXISTS predictions (
    uuid                 TEXT PRIMARY KEY,
    game_id              TEXT NOT NULL,
    sport                TEXT NOT NULL,
    model_version        TEXT NOT NULL,
    is_fallback          INTEGER NOT NULL DEFAULT 0,
    weights_version      INTEGER NOT NULL DEFAULT 0,
    predicted_winner_id  TEXT NOT NULL,
    home_win_probability REAL NOT NULL,
    confidence           REAL NOT NULL,
    predicted_home_score REAL NOT NULL,
    predicted_away_score REAL NOT NULL,
    predicted_spread     REAL NOT NULL,
    predicted_total      REAL NOT NULL,
    upset_probability    REAL NOT NULL,
    key_factors          TEXT NOT NULL DEFAULT '[]',
    factor_breakdown     TEXT NOT NULL DEFAULT '{}',
    feature_vector       TEXT NOT NULL DEFAULT '{}',
    created_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,

    actual_home_score    INTEGER,
    actual_away_score    INTEGER,
    actual_winner_id     TEXT,
    was_correct          INTEGER,
    margin_of_error      REAL,
    validated_at         TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_predictions_game ON predictions(game_id);
CREATE INDEX IF NOT EXISTS idx_predictions_unvalidated ON predictions(validated_at, created_at);
CREATE INDEX IF NOT EXISTS idx_predictions_validated_at ON predictions(validated_at);

CREATE TABLE IF NOT EXISTS run_log (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_uuid     TEXT NOT NULL,
    kind         TEXT NOT NULL,
    started_at   TIMESTAMP NOT NULL,
    duration_ms  INTEGER NOT NULL,
    processed    INTEGER NOT NULL DEFAULT 0,
    succeeded    INTEGER NOT NULL DEFAULT 0,
    failed       INTEGER NOT NULL DEFAULT 0,
    accuracy_pct REAL,
    details      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_run_log_kind ON run_log(kind, started_at);
`

// configSchema stores versioned weight sets. A new version is proposed by the
// tuner; it only takes effect when explicitly adopted.
const configSchema = `
CREATE TABLE IF NOT EXISTS weight_sets (
    version    INTEGER PRIMARY KEY AUTOINCREMENT,
    status     TEXT NOT NULL DEFAULT 'proposed',
    weights    TEXT NOT NULL,
    source     TEXT NOT NULL DEFAULT 'manual',
    notes      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    adopted_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_weight_sets_status ON weight_sets(status);
`

// cacheSchema stores msgpack-encoded feature snapshots with TTL expiry.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS feature_snapshots (
    kind       TEXT NOT NULL,
    cache_key  TEXT NOT NULL,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL,
    PRIMARY KEY (kind, cache_key)
);

CREATE INDEX IF NOT EXISTS idx_feature_snapshots_expiry ON feature_snapshots(expires_at);
`
