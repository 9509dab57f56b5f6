package profiles

import (
	"strings"
	"time"

	"github.com/vipulchinmay/projectaushadX/internal/shared/util"
)

// Profile is a stored patient profile.
type Profile struct {
	ID                string    `json:"_id"`
	Name              string    `json:"name"`
	Age               string    `json:"age"`
	Gender            string    `json:"gender"`
	BloodGroup        string    `json:"blood_group"`
	MedicalConditions string    `json:"medical_conditions"`
	HealthInsurance   string    `json:"health_insurance"`
	DateOfBirth       string    `json:"date_of_birth"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Input is the body of POST /profile. An id (either "_id" or "id") selects an update.
type Input struct {
	MongoID           string           `json:"_id"`
	ID                string           `json:"id"`
	Name              util.LooseString `json:"name"`
	Age               util.LooseString `json:"age"`
	Gender            util.LooseString `json:"gender"`
	BloodGroup        util.LooseString `json:"blood_group"`
	MedicalConditions util.LooseString `json:"medical_conditions"`
	HealthInsurance   util.LooseString `json:"health_insurance"`
	DateOfBirth       util.LooseString `json:"date_of_birth"`
}

func (in Input) targetID() string {
	if id := strings.TrimSpace(in.MongoID); id != "" {
		return id
	}
	return strings.TrimSpace(in.ID)
}

func (in Input) complete() bool {
	for _, v := range []util.LooseString{in.Name, in.Age, in.Gender, in.BloodGroup, in.DateOfBirth} {
		if v.String() == "" {
			return false
		}
	}
	return true
}

func (in Input) profile(id string) Profile {
	return Profile{
		ID:                id,
		Name:              in.Name.String(),
		Age:               in.Age.String(),
		Gender:            in.Gender.String(),
		BloodGroup:        in.BloodGroup.String(),
		MedicalConditions: in.MedicalConditions.String(),
		HealthInsurance:   in.HealthInsurance.String(),
		DateOfBirth:       in.DateOfBirth.String(),
	}
}
