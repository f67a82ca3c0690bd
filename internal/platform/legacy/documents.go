// Package legacy imports the records of the earlier document-store
// deployment into Postgres.
package legacy

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names of the legacy database.
const (
	PatientCollection    = "User"
	CaregiverCollection  = "Caregiver"
	MissionCollection    = "missions"
	SubmissionCollection = "submissions"
)

type TherapyChangeDoc struct {
	ChangedAt time.Time `bson:"changedAt"`
	Value     bool      `bson:"value"`
}

type PatientDoc struct {
	ID              primitive.ObjectID   `bson:"_id"`
	IDPatient       string               `bson:"idPatient"`
	Username        string               `bson:"username"`
	IDCardNumber    string               `bson:"ID_card_number"`
	Password        string               `bson:"password"`
	Email           string               `bson:"email"`
	Name            string               `bson:"name"`
	Surname         string               `bson:"surname"`
	Gender          string               `bson:"gender"`
	Birthday        *time.Time           `bson:"birthday"`
	Tel             string               `bson:"tel"`
	Nationality     string               `bson:"nationality"`
	Address         string               `bson:"Address"`
	UserType        string               `bson:"userType"`
	Sickness        string               `bson:"sickness"`
	UserPosts       string               `bson:"userPosts"`
	UserStatus      string               `bson:"userStatus"`
	CreatedBy       *primitive.ObjectID  `bson:"createdBy"`
	UpdatedBy       *primitive.ObjectID  `bson:"updatedBy"`
	IsDeleted       bool                 `bson:"isDeleted"`
	DeletedAt       *time.Time           `bson:"deletedAt"`
	AddDataFirst    *bool                `bson:"AdddataFirst"`
	TherapyHistory  []TherapyChangeDoc   `bson:"physicalTherapyHistory"`
	IsEmailVerified bool                 `bson:"isEmailVerified"`
	Caregivers      []primitive.ObjectID `bson:"caregivers"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type RelationshipDoc struct {
	User         primitive.ObjectID `bson:"user"`
	Relationship string             `bson:"relationship"`
}

type CaregiverDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	IDCardNumber  string             `bson:"caregiverID_card_number"`
	Name          string             `bson:"caregiverName"`
	Surname       string             `bson:"caregiverSurname"`
	Tel           string             `bson:"caregiverTel"`
	Relationships []RelationshipDoc  `bson:"caregiverRelationship"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// MissionDoc references its submissions by hex id string.
type MissionDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	No          int                 `bson:"no"`
	Name        string              `bson:"name"`
	IsCompleted bool                `bson:"isCompleted"`
	Submission  []string            `bson:"submission"`
	MissionType string              `bson:"missionType"`
	IsEvaluate  bool                `bson:"isEvaluate"`
	IsDeleted   bool                `bson:"isDeleted"`
	UpdatedBy   *primitive.ObjectID `bson:"updatedBy"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

type SubmissionDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	VideoURL  string             `bson:"videoUrl"`
	ImageURL  string             `bson:"imageUrl"`
	Evaluate  bool               `bson:"evaluate"`
	IsDeleted bool               `bson:"isDeleted"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}
