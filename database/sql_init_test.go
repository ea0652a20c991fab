/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/anvil/internal/testutil"
)

func writeSQL(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSplitSQLStatements(t *testing.T) {
	content := `
-- seed accounts
INSERT INTO accounts (name) VALUES ('a;b');
INSERT INTO accounts (name)
  VALUES ('it''s');  -- trailing comment
;
UPDATE accounts SET name = "x--y"
`
	assert.Equal(t, []string{
		"INSERT INTO accounts (name) VALUES ('a;b')",
		"INSERT INTO accounts (name)\n  VALUES ('it''s')",
		`UPDATE accounts SET name = "x--y"`,
	}, SplitSQLStatements(content))
	assert.Empty(t, SplitSQLStatements("  -- only a comment\n"))
}

func TestParseFileOrder(t *testing.T) {
	assert.Equal(t, 1, parseFileOrder("001_users.sql"))
	assert.Equal(t, 20, parseFileOrder("20_roles.sql"))
	assert.Equal(t, unorderedFile, parseFileOrder("users.sql"))
}

func TestGetSQLFilesOrder(t *testing.T) {
	root := t.TempDir()
	writeSQL(t, root, "common/010_b.sql", "")
	writeSQL(t, root, "common/002_a.sql", "")
	writeSQL(t, root, "common/notes.txt", "")
	writeSQL(t, root, "environments/dev/001_dev.sql", "")
	writeSQL(t, root, "environments/prod/001_prod.sql", "")

	m := NewSQLInitManager(nil, DataInitConfig{Filepath: root, Environment: "dev"})
	files, err := m.GetSQLFiles()
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Environment+"/"+f.Name)
	}
	assert.Equal(t, []string{"common/002_a.sql", "common/010_b.sql", "dev/001_dev.sql"}, names)
}

func TestGetSQLFilesMissingRoot(t *testing.T) {
	m := NewSQLInitManager(nil, DataInitConfig{Filepath: filepath.Join(t.TempDir(), "absent")})
	files, err := m.GetSQLFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExecuteInitialization(t *testing.T) {
	db := testutil.NewTestDB(t, (*account)(nil))
	root := t.TempDir()
	writeSQL(t, root, "common/001_accounts.sql", `
INSERT INTO accounts (uuid, name) VALUES ('6f1c2d1e-0000-4000-8000-000000000001', 'alice');
INSERT INTO accounts (uuid, name) VALUES ('6f1c2d1e-0000-4000-8000-000000000002', 'bob');
`)
	ctx := context.Background()

	m := NewSQLInitManager(db, DataInitConfig{Filepath: root, Environment: "test"})
	require.NoError(t, m.ExecuteInitialization(ctx))

	count, err := db.NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// the second run collides and rolls back as a whole
	err = m.ExecuteInitialization(ctx)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}

func TestExecuteInitializationIgnoreDuplicates(t *testing.T) {
	db := testutil.NewTestDB(t, (*account)(nil))
	root := t.TempDir()
	writeSQL(t, root, "common/001_accounts.sql",
		"INSERT INTO accounts (uuid, name) VALUES ('6f1c2d1e-0000-4000-8000-000000000001', 'alice');")
	writeSQL(t, root, "environments/dev/001_more.sql",
		"INSERT INTO accounts (uuid, name) VALUES ('6f1c2d1e-0000-4000-8000-000000000003', 'carol');")
	ctx := context.Background()

	cfg := DataInitConfig{Filepath: root, Environment: "dev", IgnoreDuplicates: true}
	require.NoError(t, NewSQLInitManager(db, cfg).ExecuteInitialization(ctx))

	results, err := NewSQLInitManager(db, cfg).Execute(ctx, db)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Skipped)
	assert.Equal(t, 1, results[1].Skipped)

	count, err := db.NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExecuteInitializationRenderTemplate(t *testing.T) {
	db := testutil.NewTestDB(t, (*account)(nil))
	root := t.TempDir()
	writeSQL(t, root, "environments/dev/001_named.sql",
		"INSERT INTO accounts (uuid, name) VALUES ('6f1c2d1e-0000-4000-8000-000000000004', '{{.SEED_NAME}}-{{.ENVIRONMENT}}');")
	t.Setenv("SEED_NAME", "dave")
	ctx := context.Background()

	cfg := DataInitConfig{Filepath: root, Environment: "dev", RenderTemplate: true}
	require.NoError(t, NewSQLInitManager(db, cfg).ExecuteInitialization(ctx))

	var name string
	require.NoError(t, db.NewSelect().Model((*account)(nil)).Column("name").Scan(ctx, &name))
	assert.Equal(t, "dave-dev", name)
}
