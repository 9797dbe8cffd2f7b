/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dto

import (
	"fmt"
	"strings"
)

// MemberSearchCondition holds optional member filters. Empty strings and nil
// pointers impose no constraint.
type MemberSearchCondition struct {
	Username string `json:"username,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	AgeGoe   *int   `json:"ageGoe,omitempty"`
	AgeLoe   *int   `json:"ageLoe,omitempty"`
}

// IsEmpty reports whether no field is set. Blank strings count as unset.
func (c MemberSearchCondition) IsEmpty() bool {
	return strings.TrimSpace(c.Username) == "" &&
		strings.TrimSpace(c.TeamName) == "" &&
		c.AgeGoe == nil && c.AgeLoe == nil
}

// MemberTeam is a flattened member row with its team's id and name. The team
// fields are nil for members without a team.
type MemberTeam struct {
	MemberID int64   `bun:"member_id" json:"memberId"`
	Username string  `bun:"username" json:"username"`
	Age      int     `bun:"age" json:"age"`
	TeamID   *int64  `bun:"team_id" json:"teamId"`
	TeamName *string `bun:"team_name" json:"teamName"`
}

func (m MemberTeam) String() string {
	teamName := "<nil>"
	if m.TeamName != nil {
		teamName = *m.TeamName
	}
	return fmt.Sprintf("MemberTeam(memberId=%d, username=%s, age=%d, teamName=%s)", m.MemberID, m.Username, m.Age, teamName)
}

// IntPtr is a helper for building conditions inline.
func IntPtr(v int) *int {
	return &v
}
