package storage

import (
	"testing"

	"hejchat/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetUnknownKey(t *testing.T) {
	store := openTestStore(t)

	value, err := store.Get("never-set")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "" {
		t.Errorf("unknown key = %q, want empty", value)
	}
}

func TestSetOverwrites(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set("k", "first"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set("k", "second"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	value, err := store.Get("k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "second" {
		t.Errorf("value = %q, want %q", value, "second")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openTestStore(t)

	saved := Settings{
		APIKey:        "sk-test",
		SelectedModel: "custom:some/model",
		SystemPrompt:  "be brief",
	}
	if err := store.SaveSettings(saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.LoadSettings()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != saved {
		t.Errorf("loaded = %+v, want %+v", loaded, saved)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	store := openTestStore(t)

	settings, err := store.LoadSettings()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if settings.APIKey != "" {
		t.Errorf("api key = %q, want empty", settings.APIKey)
	}
	if settings.SelectedModel != model.DefaultModel {
		t.Errorf("model = %q, want default %q", settings.SelectedModel, model.DefaultModel)
	}
}

func TestSettingsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.SaveSettings(Settings{APIKey: "persisted"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	store.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	settings, err := reopened.LoadSettings()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if settings.APIKey != "persisted" {
		t.Errorf("api key = %q after reopen", settings.APIKey)
	}
}
