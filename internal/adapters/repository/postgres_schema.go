package repository

// migration is one forward-only schema step.
type migration struct {
	Version int
	Name    string
	SQL     string
}

const migrationsTable = "scorekeeper_migrations"

const migration001Runs = `
CREATE TABLE IF NOT EXISTS runs (
    id UUID PRIMARY KEY,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
    channels TEXT[] NOT NULL DEFAULT '{}',
    payload JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at DESC);
`

const migration002Players = `
CREATE TABLE IF NOT EXISTS run_players (
    run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    exp INTEGER NOT NULL,
    rep INTEGER NOT NULL,
    jce INTEGER NOT NULL,
    PRIMARY KEY (run_id, name),
    CONSTRAINT valid_exp CHECK (exp >= 0)
);

CREATE INDEX IF NOT EXISTS idx_run_players_exp ON run_players(run_id, exp DESC);
`

const migration003Actions = `
CREATE TABLE IF NOT EXISTS run_actions (
    run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day DATE NOT NULL,
    player TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    description TEXT NOT NULL,
    exp INTEGER NOT NULL,
    rep INTEGER NOT NULL,
    jce INTEGER NOT NULL,
    PRIMARY KEY (run_id, day, player, seq)
);

CREATE INDEX IF NOT EXISTS idx_run_actions_player ON run_actions(run_id, player);
`

func migrations() []migration {
	return []migration{
		{Version: 1, Name: "create_runs", SQL: migration001Runs},
		{Version: 2, Name: "create_run_players", SQL: migration002Players},
		{Version: 3, Name: "create_run_actions", SQL: migration003Actions},
	}
}
