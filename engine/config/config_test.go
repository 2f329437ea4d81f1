package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestLoadSample(t *testing.T) {
	config, err := Load("../../emberwild.ini.sample")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "filesystem", config.Storage.Type)
	assert.Equal(t, 20, config.Game.TickRate)
	assert.Equal(t, time.Millisecond*50, config.Game.TickInterval())
	assert.Equal(t, time.Second*5, config.Game.SaveInterval)
	assert.Equal(t, 120000, config.Auth.PBKDF2Iterations)
}

func writeConfig(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "test.ini")
	if err := ioutil.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "[server]\nbogus = 1\n"))
	assert.T(t, err != nil, "unknown key should be rejected")
}

func TestUnknownSection(t *testing.T) {
	_, err := Load(writeConfig(t, "[gate1]\nport = 1\n"))
	assert.T(t, err != nil, "unknown section should be rejected")
}

func TestAdminLists(t *testing.T) {
	config, err := Load(writeConfig(t, "[admin]\nprofile_1 = abc\naccount_1 = Root\n"))
	if err != nil {
		t.Fatal(err)
	}
	assert.T(t, config.Admin.Profiles.Contains("abc"), "profile admin missing")
	assert.T(t, config.Admin.Accounts.Contains("root"), "account admin should be lower-cased")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":             "9100",
		"MONGO_URL":        "mongodb://db:27017",
		"MONGO_DB":         "game",
		"MONGO_COLLECTION": "heroes",
	}
	config := Default()
	ApplyEnv(config, func(k string) string { return env[k] })
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "mongodb", config.Storage.Type)
	assert.Equal(t, "mongodb://db:27017", config.Storage.Url)
	assert.Equal(t, "game", config.Storage.DB)
	assert.Equal(t, "heroes", config.Storage.Collection)
	assert.Equal(t, nil, Validate(config))
}

func TestValidateStorage(t *testing.T) {
	config := Default()
	config.Storage.Type = "mongodb"
	assert.T(t, Validate(config) != nil, "mongodb without url should fail")

	config = Default()
	config.Storage.Type = "redis"
	config.Storage.Url = "127.0.0.1:6379"
	normalizeStorageConfig(&config.Storage)
	assert.Equal(t, "0", config.Storage.DB)
	assert.Equal(t, nil, Validate(config))

	config = Default()
	config.Storage.Type = "mysql"
	assert.T(t, Validate(config) != nil, "unknown storage type should fail")
}
