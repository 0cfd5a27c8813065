package models

import (
	"strings"
	"testing"
)

func TestSetPasswordHashes(t *testing.T) {
	var user User
	if err := user.SetPassword("hunter2secret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}

	if user.Password == "hunter2secret" {
		t.Fatal("password stored in plaintext")
	}
	if !strings.HasPrefix(user.Password, "$2") {
		t.Errorf("stored value %q is not a bcrypt hash", user.Password)
	}
	if user.PasswordChangedAt == nil {
		t.Error("PasswordChangedAt not stamped")
	}

	if err := user.ValidatePassword("hunter2secret"); err != nil {
		t.Errorf("ValidatePassword rejects the password just set: %v", err)
	}
	if err := user.ValidatePassword("wrong"); err == nil {
		t.Error("ValidatePassword accepted a wrong password")
	}
}

func TestSetPasswordReplacesOldOne(t *testing.T) {
	var user User
	if err := user.SetPassword("first-password"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := user.SetPassword("second-password"); err != nil {
		t.Fatalf("SetPassword again: %v", err)
	}

	if err := user.ValidatePassword("first-password"); err == nil {
		t.Error("old password still validates after reset")
	}
	if err := user.ValidatePassword("second-password"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
