package core

import "testing"

func TestConfigMode(t *testing.T) {
	newConf := func(dbName, dbUser, env, host string) *Config {
		return &Config{
			Env: env,
			Server: ServerConfig{
				Host:      host,
				DemoHosts: []string{".web.app", ".firebaseapp.com"},
			},
			Database: DatabaseConfig{Name: dbName, User: dbUser},
		}
	}

	tests := []struct {
		name string
		conf *Config
		want Mode
	}{
		{name: "no database credentials", conf: newConf("", "", "PROD", "darasa.example.com"), want: ModeDemo},
		{name: "missing database user", conf: newConf("darasa", "", "PROD", "darasa.example.com"), want: ModeDemo},
		{name: "dev env", conf: newConf("darasa", "darasa", "DEV", "localhost"), want: ModeDemo},
		{name: "qa env", conf: newConf("darasa", "darasa", "QA", "darasa.example.com"), want: ModeDemo},
		{name: "demo host .web.app", conf: newConf("darasa", "darasa", "PROD", "darasa-demo.web.app"), want: ModeDemo},
		{name: "demo host .firebaseapp.com", conf: newConf("darasa", "darasa", "PROD", "darasa-demo.firebaseapp.com"), want: ModeDemo},
		{name: "live", conf: newConf("darasa", "darasa", "PROD", "darasa.example.com"), want: ModeLive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.Mode(); got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigModeReEvaluates(t *testing.T) {
	conf := &Config{
		Env:      "PROD",
		Server:   ServerConfig{Host: "darasa.example.com"},
		Database: DatabaseConfig{Name: "darasa", User: "darasa"},
	}
	if got := conf.Mode(); got != ModeLive {
		t.Fatalf("Mode() = %v, want %v", got, ModeLive)
	}

	// dropping credentials flips the resolution on the next call
	conf.Database.User = ""
	if got := conf.Mode(); got != ModeDemo {
		t.Errorf("Mode() = %v, want %v", got, ModeDemo)
	}
}
