package preflight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"collabhub/internal/config"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeAdmins struct {
	count int64
	err   error
}

func (a fakeAdmins) Count(context.Context) (int64, error) { return a.count, a.err }

func devConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		JWTSecret:   strings.Repeat("s", 48),
	}
}

func TestRunAllPasses(t *testing.T) {
	checker := NewChecker(devConfig(), fakePinger{}, fakePinger{}, fakeAdmins{count: 1})
	results := checker.RunAll(context.Background())

	assert.Len(t, results, 4)
	assert.False(t, HasFailures(results))
	for _, r := range results {
		assert.Equal(t, StatusPass, r.Status, r.Name)
	}
}

func TestStoreFailureIsFatal(t *testing.T) {
	checker := NewChecker(devConfig(), fakePinger{err: errors.New("no route")}, nil, fakeAdmins{count: 1})
	results := checker.RunAll(context.Background())

	assert.True(t, HasFailures(results))
	assert.Equal(t, StatusFail, results[0].Status)
	assert.Equal(t, StatusWarning, results[1].Status)
}

func TestRedisFailureOnlyWarns(t *testing.T) {
	checker := NewChecker(devConfig(), nil, fakePinger{err: errors.New("refused")}, fakeAdmins{count: 1})
	result := checker.checkRedisConnection(context.Background())

	assert.Equal(t, StatusWarning, result.Status)
	assert.Error(t, result.Error)
}

func TestCredentialChecks(t *testing.T) {
	cfg := devConfig()
	cfg.JWTSecret = ""
	assert.Equal(t, StatusWarning, NewChecker(cfg, nil, nil, fakeAdmins{}).checkCredentials().Status)

	cfg.Environment = "production"
	assert.Equal(t, StatusFail, NewChecker(cfg, nil, nil, fakeAdmins{}).checkCredentials().Status)

	cfg.JWTSecret = "short"
	assert.Equal(t, StatusWarning, NewChecker(cfg, nil, nil, fakeAdmins{}).checkCredentials().Status)
}

func TestAdminAccountCheck(t *testing.T) {
	cfg := devConfig()
	assert.Equal(t, StatusWarning, NewChecker(cfg, nil, nil, fakeAdmins{}).checkAdminAccount(context.Background()).Status)
	assert.Equal(t, StatusWarning, NewChecker(cfg, nil, nil, fakeAdmins{err: errors.New("boom")}).checkAdminAccount(context.Background()).Status)

	cfg.AdminSeedEmail = "root@example.com"
	assert.Equal(t, StatusPass, NewChecker(cfg, nil, nil, fakeAdmins{}).checkAdminAccount(context.Background()).Status)
}
