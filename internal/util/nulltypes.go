// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "database/sql"

// NullInt64FromPtr converts an optional id into sql.NullInt64.
func NullInt64FromPtr(ptr *int64) sql.NullInt64 {
	if ptr != nil {
		return sql.NullInt64{Int64: *ptr, Valid: true}
	}
	return sql.NullInt64{}
}

// NullInt64FromValue creates a valid sql.NullInt64.
func NullInt64FromValue(val int64) sql.NullInt64 {
	return sql.NullInt64{Int64: val, Valid: true}
}

// PtrFromNullInt64 is the inverse of NullInt64FromPtr.
func PtrFromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// NullStringFromValue returns a NullString that is valid only for non-empty s.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
