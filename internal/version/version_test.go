// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{}, "dev"},
		{Info{Version: "v1.4.0", GitCommit: "unknown"}, "v1.4.0"},
		{Info{Version: "v1.4.0", GitCommit: "abc1234", BuildTime: "2026-01-30T12:00:00Z"}, "v1.4.0 (abc1234, built 2026-01-30T12:00:00Z)"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.info, got, tt.want)
		}
	}
}
