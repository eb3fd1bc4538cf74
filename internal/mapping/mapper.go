// Package mapping builds the cross-entity relationship output: one record per
// threat actor linking the malware it uses, the techniques observed for it,
// and the incidents attributed to it.
package mapping

import (
	"github.com/Ashfaaq98/threat-aggregator/internal/model"
	"github.com/Ashfaaq98/threat-aggregator/internal/normalize"
)

// Build assembles actor relationship mappings from the finalized dataset.
// Actors with no related malware, techniques, or incidents are omitted.
func Build(ds *model.Dataset) []*model.ActorMapping {
	var out []*model.ActorMapping
	for _, actor := range ds.Actors {
		m := &model.ActorMapping{
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Malware:    relatedMalware(actor, ds.Malware),
			Techniques: relatedTechniques(actor, ds.Techniques),
			Incidents:  relatedIncidents(actor, ds.Incidents),
		}
		if len(m.Malware) == 0 && len(m.Techniques) == 0 && len(m.Incidents) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// relatedMalware finds malware whose associated-actor set names the actor.
func relatedMalware(actor *model.ThreatActor, records []*model.Malware) []string {
	var names []string
	for _, m := range records {
		if normalize.ContainsFold(m.AssociatedActors, actor.Name) {
			names = append(names, m.Name)
		}
	}
	return normalize.StringSet(names)
}

// relatedTechniques finds techniques attributed to the actor by id or listed
// in the actor's TTPs.
func relatedTechniques(actor *model.ThreatActor, records []*model.Technique) []string {
	var ids []string
	for _, t := range records {
		switch {
		case actor.ID != "" && t.ActorID == actor.ID:
			ids = append(ids, techniqueRef(t))
		case t.TechniqueID != "" && normalize.ContainsFold(actor.TTPs, t.TechniqueID):
			ids = append(ids, techniqueRef(t))
		}
	}
	return normalize.StringSet(ids)
}

func techniqueRef(t *model.Technique) string {
	if t.TechniqueID != "" {
		return t.TechniqueID
	}
	return t.Name
}

// relatedIncidents finds incidents attributed to the actor by id or by name.
func relatedIncidents(actor *model.ThreatActor, records []*model.Incident) []string {
	var ids []string
	for _, in := range records {
		switch {
		case actor.ID != "" && in.ActorID == actor.ID:
			ids = append(ids, in.ID)
		case in.Actor != "" && normalize.ContainsFold([]string{in.Actor}, actor.Name):
			ids = append(ids, in.ID)
		}
	}
	return normalize.StringSet(ids)
}
