package execctx

import (
	"testing"
)

func TestFilteredEnvironmentExcludesSensitive(t *testing.T) {
	raw := []string{
		"PATH=/usr/bin:/bin",
		"HOME=/home/alice",
		"AWS_SECRET_ACCESS_KEY=super-secret",
		"API_KEY=abc123",
		"MY_PASSWORD=hunter2",
		"GITHUB_TOKEN=ghp_xxx",
		"PRIVATE_KEY_PATH=/root/.ssh/id_rsa",
		"UNRELATED=should-be-dropped-not-allowlisted",
	}

	env := filteredEnvironment(raw)

	for _, blocked := range []string{"AWS_SECRET_ACCESS_KEY", "API_KEY", "MY_PASSWORD", "GITHUB_TOKEN", "PRIVATE_KEY_PATH"} {
		if _, present := env[blocked]; present {
			t.Errorf("filteredEnvironment leaked sensitive var %q", blocked)
		}
	}

	if _, present := env["UNRELATED"]; present {
		t.Error("filteredEnvironment kept a var with no allow-listed prefix")
	}

	for _, allowed := range []string{"PATH", "HOME"} {
		if _, present := env[allowed]; !present {
			t.Errorf("filteredEnvironment dropped allow-listed var %q", allowed)
		}
	}
}

func TestFilteredEnvironmentTruncatesLongValues(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	raw := []string{"PATH=" + string(long)}

	env := filteredEnvironment(raw)

	if len(env["PATH"]) != maxEnvValueLen {
		t.Errorf("expected PATH truncated to %d chars, got %d", maxEnvValueLen, len(env["PATH"]))
	}
}

func TestCaptureSetsCwd(t *testing.T) {
	snap, err := Capture()
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if snap.Cwd == "" {
		t.Error("Capture left Cwd empty")
	}
	if snap.Username == "" {
		t.Error("Capture left Username empty")
	}
	if snap.Hostname == "" {
		t.Error("Capture left Hostname empty")
	}
}

func TestIsSensitiveCaseInsensitive(t *testing.T) {
	for _, name := range []string{"api_key", "Api_Key", "API_KEY", "aws_region", "my_secret_token"} {
		if !isSensitive(name) {
			t.Errorf("expected %q to be classified sensitive regardless of case", name)
		}
	}
	if isSensitive("PATH") {
		t.Error("PATH should not be classified sensitive")
	}
}
