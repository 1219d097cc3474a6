package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerDSNs(t *testing.T) {
	tests := []struct {
		name  string
		build func(Config) (string, error)
		cfg   Config
		want  string
		parts []string
	}{
		{
			name:  "postgres defaults",
			build: buildPostgresDSN,
			cfg:   Config{User: "deck", Name: "deck"},
			want:  "host=localhost port=5432 user=deck dbname=deck sslmode=disable",
		},
		{
			name:  "postgres overrides",
			build: buildPostgresDSN,
			cfg: Config{
				User: "presenter", Name: "slides", Host: "db.example.com", Port: 6543, Password: "pass",
				Options: map[string]string{"sslmode": "require", "search_path": "deck"},
			},
			parts: []string{"host=db.example.com", "port=6543", "password=pass", "sslmode=require", "search_path=deck"},
		},
		{
			name:  "mysql defaults",
			build: buildMySQLDSN,
			cfg:   Config{User: "deck", Name: "deck"},
			want:  "deck@tcp(127.0.0.1:3306)/deck?charset=utf8mb4&loc=Local&parseTime=True",
		},
		{
			name:  "mysql overrides",
			build: buildMySQLDSN,
			cfg: Config{
				User: "presenter", Password: "secret", Name: "slides", Host: "db.example.com", Port: 3307,
				Options: map[string]string{"tls": "skip-verify"},
			},
			parts: []string{"presenter:secret@tcp(db.example.com:3307)/slides?", "parseTime=True", "tls=skip-verify"},
		},
		{
			name:  "explicit dsn wins",
			build: buildMySQLDSN,
			cfg:   Config{DSN: "root@tcp(mysql:3306)/deck"},
			want:  "root@tcp(mysql:3306)/deck",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.build(tt.cfg)
			require.NoError(t, err)
			if tt.want != "" {
				require.Equal(t, tt.want, dsn)
			}
			for _, part := range tt.parts {
				require.Contains(t, dsn, part)
			}
		})
	}
}

func TestServerDSNsRequireUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{Host: "localhost"})
	require.ErrorContains(t, err, "postgres configuration requires")

	_, err = buildMySQLDSN(Config{User: "deck"})
	require.ErrorContains(t, err, "mysql configuration requires")
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?_foreign_keys=1&cache=shared", dsn)

	dsn, err = buildSQLiteDSN(Config{Path: ":MEMORY:"})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?_foreign_keys=1&cache=shared", dsn)

	path := filepath.Join(t.TempDir(), "nested", "deck.sqlite")
	dsn, err = buildSQLiteDSN(Config{Path: path, Options: map[string]string{"_busy_timeout": "100"}})
	require.NoError(t, err)
	require.Equal(t, "file:"+filepath.ToSlash(path)+"?_busy_timeout=100&_foreign_keys=1&_journal_mode=WAL", dsn)
	require.DirExists(t, filepath.Dir(path))
}

func TestMergeOptionsOverridesDefaults(t *testing.T) {
	got := mergeOptions(map[string]string{"sslmode": "disable", "a": "1"}, map[string]string{"sslmode": "verify-full"})
	require.Equal(t, []string{"a=1", "sslmode=verify-full"}, got)
}
