package models

// Role is the courtroom role a participant speaks under
type Role string

// Known courtroom roles
const (
	RoleJudge      Role = "Judge"
	RoleLawyer     Role = "Lawyer"
	RoleProsecutor Role = "Prosecutor"
	RoleDefendant  Role = "Defendant"
	RoleWitness    Role = "Witness"
	RoleClerk      Role = "Clerk"
	RoleObserver   Role = "Observer"
)

// Roles lists every role an identity may be created with
var Roles = []Role{RoleJudge, RoleLawyer, RoleProsecutor, RoleDefendant, RoleWitness, RoleClerk, RoleObserver}

// Identity holds a participant identity, independent of any session
type Identity struct {
	ID             string `json:"user_id" bson:"userID"`
	DisplayName    string `json:"name" bson:"name"`
	Role           Role   `json:"role" bson:"role"`
	CurrentSession string `json:"meeting_id,omitempty" bson:"meetingID,omitempty"`
}
