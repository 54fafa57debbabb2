package grant

import "testing"

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		level Level
		want  Capabilities
	}{
		{LevelNone, Capabilities{}},
		{LevelView, Capabilities{Read: true}},
		{LevelEdit, Capabilities{Read: true, Write: true, CreateSubfolder: true, Copy: true}},
		{LevelShare, Capabilities{Read: true, Write: true, Share: true, CreateSubfolder: true, Move: true, Copy: true}},
		{LevelManage, Capabilities{
			Read: true, Write: true, Delete: true, Share: true,
			ManagePermissions: true, CreateSubfolder: true, Move: true, Copy: true,
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := CapabilitiesFor(tt.level); got != tt.want {
				t.Errorf("CapabilitiesFor(%s) = %+v, want %+v", tt.level, got, tt.want)
			}
		})
	}
}

func TestReadAcrossLevels(t *testing.T) {
	// Every level except NONE grants read.
	for _, l := range Levels() {
		caps := CapabilitiesFor(l)
		if l == LevelNone {
			if caps.Read {
				t.Error("NONE must not grant read")
			}
			continue
		}
		if !caps.Read {
			t.Errorf("level %s must grant read", l)
		}
	}
}

func TestCapabilityMonotonicity(t *testing.T) {
	// Each level's capability set is a field-by-field superset of every
	// strictly lower level.
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		higher := CapabilitiesFor(levels[i])
		for j := 0; j < i; j++ {
			lower := CapabilitiesFor(levels[j])
			for _, a := range Actions() {
				if lower.Allows(a) && !higher.Allows(a) {
					t.Errorf("level %s allows %s but higher level %s does not",
						levels[j], a, levels[i])
				}
			}
		}
	}
}

func TestLevelRankOrder(t *testing.T) {
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1].Rank() >= levels[i].Rank() {
			t.Errorf("rank of %s should be below %s", levels[i-1], levels[i])
		}
	}
	if Level("BOGUS").Rank() != -1 {
		t.Error("unknown level should rank below NONE")
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("edit")
	if err != nil {
		t.Fatal(err)
	}
	if l != LevelEdit {
		t.Errorf("expected EDIT, got %s", l)
	}

	if _, err := ParseLevel("superuser"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("MANAGE_PERMISSIONS")
	if err != nil {
		t.Fatal(err)
	}
	if a != ActionManagePermissions {
		t.Errorf("expected manage_permissions, got %s", a)
	}

	if _, err := ParseAction("teleport"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestAllowsUnknownAction(t *testing.T) {
	if CapabilitiesFor(LevelManage).Allows(Action("teleport")) {
		t.Error("unknown action must never be allowed")
	}
}
