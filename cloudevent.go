package weave

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent aliases the CloudEvents SDK's Event type, the wire envelope
// ToCloudEvent converts an ObserverEvent into for any external sink willing
// to listen.
// Log sinks and dashboards are external collaborators; this package emits
// into their format without depending on any concrete one.
type CloudEvent = cloudevents.Event

// ToCloudEvent converts an ObserverEvent into a CloudEvent.
func ToCloudEvent(event ObserverEvent) CloudEvent {
	ce := cloudevents.NewEvent()
	ce.SetID(generateEventID())
	ce.SetSource(event.Source)
	ce.SetType(event.Type)
	ce.SetTime(event.Timestamp)
	ce.SetSpecVersion(cloudevents.VersionV1)
	if event.Data != nil {
		_ = ce.SetData(cloudevents.ApplicationJSON, event.Data)
	}
	for k, v := range event.Metadata {
		ce.SetExtension(k, v)
	}
	return ce
}

func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
