package inheritance

import (
	"testing"

	"github.com/xraph/custodian/grant"
)

func boolPtr(b bool) *bool { return &b }

func TestOverridesApply(t *testing.T) {
	base := grant.CapabilitiesFor(grant.LevelView)

	// Elevate write, leave everything else alone.
	o := Overrides{Write: boolPtr(true)}
	got := o.Apply(base)
	if !got.Write {
		t.Error("write override should elevate the field")
	}
	if !got.Read {
		t.Error("read should survive the overlay")
	}
	if got.Delete {
		t.Error("delete was not overridden and VIEW denies it")
	}
}

func TestOverridesApplyDowngrade(t *testing.T) {
	base := grant.CapabilitiesFor(grant.LevelManage)

	// Overrides win in both directions.
	o := Overrides{Delete: boolPtr(false), Share: boolPtr(false)}
	got := o.Apply(base)
	if got.Delete || got.Share {
		t.Error("false overrides should downgrade inherited fields")
	}
	if !got.Write || !got.ManagePermissions {
		t.Error("untouched fields should keep the inherited value")
	}
}

func TestOverridesZero(t *testing.T) {
	var o Overrides
	if !o.IsZero() {
		t.Error("empty overrides should be zero")
	}

	base := grant.CapabilitiesFor(grant.LevelEdit)
	if got := o.Apply(base); got != base {
		t.Errorf("zero overrides must be identity: got %+v", got)
	}

	o.Move = boolPtr(true)
	if o.IsZero() {
		t.Error("overrides with a set field should not be zero")
	}
}
