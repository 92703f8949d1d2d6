package activity

import (
	"strings"
	"time"
)

// Contract lifecycle verbs.
const (
	VerbExported       = "contract.exported"
	VerbImported       = "contract.imported"
	VerbDraftSaved     = "contract.draft.saved"
	VerbArchiveSaved   = "contract.archive.saved"
	ObjectTypeContract = "contract"
	ObjectTypeDraft    = "contract.draft"
)

// ContractEventInput describes the common fields for contract lifecycle events.
type ContractEventInput struct {
	ActorID    string
	TenantID   string
	ObjectID   string
	Channel    string
	Schema     string
	Version    string
	Hash       string
	Warnings   int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildExportedEvent constructs an event for a contract written to an envelope.
func BuildExportedEvent(input ContractEventInput) Event {
	return buildContractEvent(VerbExported, ObjectTypeContract, input)
}

// BuildImportedEvent constructs an event for an envelope read back into a document.
func BuildImportedEvent(input ContractEventInput) Event {
	return buildContractEvent(VerbImported, ObjectTypeContract, input)
}

// BuildDraftSavedEvent constructs an event for a draft persisted under a key.
func BuildDraftSavedEvent(input ContractEventInput) Event {
	return buildContractEvent(VerbDraftSaved, ObjectTypeDraft, input)
}

// BuildArchiveSavedEvent constructs an event for a remote archive commit.
func BuildArchiveSavedEvent(input ContractEventInput) Event {
	return buildContractEvent(VerbArchiveSaved, ObjectTypeContract, input)
}

func buildContractEvent(verb, objectType string, input ContractEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Warnings > 0 {
		metadata = ensureMetadata(metadata)
		metadata["warnings"] = input.Warnings
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Schema)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Schema:     strings.TrimSpace(input.Schema),
		Version:    strings.TrimSpace(input.Version),
		Hash:       strings.TrimSpace(input.Hash),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
