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

package entity

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Member optionally belongs to a Team. TeamID is the owning column; Team is
// filled on relation loads or by ChangeTeam.
type Member struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull" json:"username"`
	Age      int    `bun:"age,notnull" json:"age"`
	TeamID   *int64 `bun:"team_id" json:"teamId,omitempty"`
	Team     *Team  `bun:"rel:belongs-to,join:team_id=id" json:"-"`
}

var _ bun.BeforeAppendModelHook = (*Member)(nil)

// NewMember returns an unsaved member without a team.
func NewMember(username string, age int) *Member {
	return &Member{Username: username, Age: age}
}

// NewMemberWithTeam returns an unsaved member assigned to team. A nil team
// behaves like NewMember.
func NewMemberWithTeam(username string, age int, team *Team) *Member {
	m := NewMember(username, age)
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// ChangeTeam moves the member to team and appends it to team.Members. A nil
// team detaches the member.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	m.syncTeamID()
	team.Members = append(team.Members, m)
}

// BeforeAppendModel copies the team key into TeamID before insert and update,
// so a team saved after ChangeTeam is still referenced.
func (m *Member) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		m.syncTeamID()
	}
	return nil
}

func (m *Member) syncTeamID() {
	if m.Team == nil || m.Team.ID == 0 {
		return
	}
	id := m.Team.ID
	m.TeamID = &id
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Username, m.Age)
}
