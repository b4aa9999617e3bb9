package main

import "testing"

func TestMainWiring(t *testing.T) {
	origSetVersion := setVersionInfo
	origExecute := executeCmd
	t.Cleanup(func() {
		setVersionInfo = origSetVersion
		executeCmd = origExecute
	})

	var gotVersion, executed bool
	setVersionInfo = func(v, c, d string) {
		gotVersion = true
		if v == "" || c == "" || d == "" {
			t.Fatalf("expected version info to be set")
		}
	}
	executeCmd = func() {
		if !gotVersion {
			t.Fatal("expected version info before execution")
		}
		executed = true
	}

	main()

	if !gotVersion || !executed {
		t.Fatalf("expected all wiring calls, got version=%v exec=%v", gotVersion, executed)
	}
}
