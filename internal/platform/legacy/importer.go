package legacy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/physiocare/dashboard/internal/domain/caregiver"
	"github.com/physiocare/dashboard/internal/domain/mission"
	"github.com/physiocare/dashboard/internal/domain/patient"
	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/db"
)

type PatientStore interface {
	Create(ctx context.Context, p *patient.Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type MissionStore interface {
	Create(ctx context.Context, m *mission.Mission) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type CaregiverStore interface {
	SaveByIDCard(ctx context.Context, c *caregiver.Caregiver) (bool, error)
	UpsertRelationship(ctx context.Context, caregiverID, patientID uuid.UUID, label string) error
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// Report counts what one import run did. Existing rows are those already
// imported by an earlier run.
type Report struct {
	Patients           int
	Missions           int
	Submissions        int
	Caregivers         int
	Links              int
	Existing           int
	Skipped            int
	MissingSubmissions int
	DanglingLinks      int
}

type Importer struct {
	src        Source
	patients   PatientStore
	missions   MissionStore
	caregivers CaregiverStore
	tx         db.TxRunner
	logger     zerolog.Logger
	now        func() time.Time
}

func NewImporter(src Source, patients PatientStore, missions MissionStore, caregivers CaregiverStore,
	tx db.TxRunner, logger zerolog.Logger) *Importer {
	return &Importer{
		src:        src,
		patients:   patients,
		missions:   missions,
		caregivers: caregivers,
		tx:         tx,
		logger:     logger.With().Str("component", "legacy-import").Logger(),
		now:        time.Now,
	}
}

// Run imports patients, then missions, then caregivers with their links.
// Each document is written in its own transaction. Documents that already
// exist are counted and skipped, so the import can be re-run.
func (im *Importer) Run(ctx context.Context) (Report, error) {
	var rep Report

	patientDocs, err := im.src.Patients(ctx)
	if err != nil {
		return rep, err
	}
	if err := im.importPatients(ctx, patientDocs, &rep); err != nil {
		return rep, err
	}
	if err := im.importMissions(ctx, &rep); err != nil {
		return rep, err
	}
	if err := im.importCaregivers(ctx, PatientSideLinks(patientDocs), &rep); err != nil {
		return rep, err
	}

	im.logger.Info().
		Int("patients", rep.Patients).
		Int("missions", rep.Missions).
		Int("submissions", rep.Submissions).
		Int("caregivers", rep.Caregivers).
		Int("links", rep.Links).
		Int("existing", rep.Existing).
		Int("skipped", rep.Skipped).
		Msg("legacy import finished")
	return rep, nil
}

// handled reports whether err is a duplicate and counts it.
func (im *Importer) handled(err error, kind, id string, rep *Report) bool {
	if apperr.IsConflict(err) {
		im.logger.Debug().Str("kind", kind).Str("legacy_id", id).Msg("already imported")
		rep.Existing++
		return true
	}
	return false
}

func (im *Importer) importPatients(ctx context.Context, docs []PatientDoc, rep *Report) error {
	for _, doc := range docs {
		p, err := ToPatient(doc, im.now())
		if err != nil {
			im.logger.Warn().Err(err).Msg("skipping patient")
			rep.Skipped++
			continue
		}
		err = im.tx.InTx(ctx, func(ctx context.Context) error {
			if err := im.patients.Create(ctx, p); err != nil {
				return err
			}
			if p.IsDeleted {
				return im.patients.SoftDelete(ctx, p.ID, *p.DeletedAt)
			}
			return nil
		})
		if err != nil {
			if im.handled(err, "patient", doc.ID.Hex(), rep) {
				continue
			}
			return fmt.Errorf("import patient %s: %w", doc.ID.Hex(), err)
		}
		rep.Patients++
	}
	return nil
}

func (im *Importer) importMissions(ctx context.Context, rep *Report) error {
	subDocs, err := im.src.Submissions(ctx)
	if err != nil {
		return err
	}
	subs := make(map[string]SubmissionDoc, len(subDocs))
	for _, s := range subDocs {
		subs[s.ID.Hex()] = s
	}

	docs, err := im.src.Missions(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		m, missing := ToMission(doc, subs, im.now())
		if m.Name == "" {
			im.logger.Warn().Str("legacy_id", doc.ID.Hex()).Msg("skipping mission without a name")
			rep.Skipped++
			continue
		}
		if len(missing) > 0 {
			im.logger.Warn().Str("legacy_id", doc.ID.Hex()).Strs("missing", missing).Msg("mission references unknown submissions")
		}
		err := im.tx.InTx(ctx, func(ctx context.Context) error {
			if err := im.missions.Create(ctx, m); err != nil {
				return err
			}
			if m.IsDeleted {
				return im.missions.SoftDelete(ctx, m.ID, *m.DeletedAt)
			}
			return nil
		})
		if err != nil {
			if im.handled(err, "mission", doc.ID.Hex(), rep) {
				continue
			}
			return fmt.Errorf("import mission %s: %w", doc.ID.Hex(), err)
		}
		rep.Missions++
		rep.Submissions += len(m.Submissions)
		rep.MissingSubmissions += len(missing)
	}
	return nil
}

func (im *Importer) importCaregivers(ctx context.Context, patientSide map[primitive.ObjectID][]primitive.ObjectID, rep *Report) error {
	docs, err := im.src.Caregivers(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		c, links := ToCaregiver(doc, patientSide[doc.ID])
		if c.Name == "" && c.Surname == "" {
			im.logger.Warn().Str("legacy_id", doc.ID.Hex()).Msg("skipping caregiver without a name")
			rep.Skipped++
			continue
		}

		var linked, dangling int
		err := im.tx.InTx(ctx, func(ctx context.Context) error {
			linked, dangling = 0, 0
			if _, err := im.caregivers.SaveByIDCard(ctx, c); err != nil {
				return err
			}
			for _, l := range links {
				ok, err := im.caregivers.PatientExists(ctx, l.PatientID)
				if err != nil {
					return err
				}
				if !ok {
					dangling++
					continue
				}
				if err := im.caregivers.UpsertRelationship(ctx, c.ID, l.PatientID, l.Relationship); err != nil {
					return err
				}
				linked++
			}
			return nil
		})
		if err != nil {
			if im.handled(err, "caregiver", doc.ID.Hex(), rep) {
				continue
			}
			return fmt.Errorf("import caregiver %s: %w", doc.ID.Hex(), err)
		}
		if dangling > 0 {
			im.logger.Warn().Str("legacy_id", doc.ID.Hex()).Int("dangling", dangling).Msg("caregiver links to unknown patients")
		}
		rep.Caregivers++
		rep.Links += linked
		rep.DanglingLinks += dangling
	}
	return nil
}
