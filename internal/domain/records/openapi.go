package records

import (
	"net/http"

	"github.com/clinicvoice/clinicvoice/internal/platform/openapi"
)

func prop(typ, format string) map[string]interface{} {
	p := map[string]interface{}{"type": typ}
	if format != "" {
		p["format"] = format
	}
	return p
}

func nullable(p map[string]interface{}) map[string]interface{} {
	p["nullable"] = true
	return p
}

func stringList() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": prop("string", ""), "nullable": true}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	o := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func statusProp() map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": Statuses}
}

// DescribeAPI adds the record schemas and routes to g.
func DescribeAPI(g *openapi.Generator) {
	g.AddSchema("Patient", object(map[string]interface{}{
		"id":          prop("string", "uuid"),
		"firstName":   prop("string", ""),
		"lastName":    prop("string", ""),
		"dateOfBirth": prop("string", "date-time"),
		"email":       nullable(prop("string", "email")),
		"phone":       nullable(prop("string", "")),
		"createdAt":   prop("string", "date-time"),
		"updatedAt":   prop("string", "date-time"),
		"voiceNotes":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/VoiceNote"}},
	}, "id", "firstName", "lastName", "dateOfBirth", "createdAt", "updatedAt"))

	g.AddSchema("VoiceNote", object(map[string]interface{}{
		"id":         prop("string", "uuid"),
		"patientId":  prop("string", "uuid"),
		"doctorId":   prop("string", "uuid"),
		"duration":   prop("number", ""),
		"recordedAt": prop("string", "date-time"),
		"status":     statusProp(),
		"fileSize":   nullable(prop("number", "")),
		"format":     nullable(prop("string", "")),
		"location":   nullable(prop("string", "")),
		"createdAt":  prop("string", "date-time"),
		"updatedAt":  prop("string", "date-time"),
		"patient":    map[string]interface{}{"$ref": "#/components/schemas/Patient"},
		"summaries":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/Summary"}},
	}, "id", "patientId", "doctorId", "duration", "recordedAt", "status", "createdAt", "updatedAt"))

	g.AddSchema("Summary", object(map[string]interface{}{
		"id":              prop("string", "uuid"),
		"voiceNoteId":     prop("string", "uuid"),
		"content":         prop("string", ""),
		"keyPoints":       stringList(),
		"recommendations": stringList(),
		"generatedAt":     prop("string", "date-time"),
		"createdAt":       prop("string", "date-time"),
		"updatedAt":       prop("string", "date-time"),
		"voiceNote":       map[string]interface{}{"$ref": "#/components/schemas/VoiceNote"},
	}, "id", "voiceNoteId", "content", "generatedAt", "createdAt", "updatedAt"))

	patientInput := map[string]interface{}{
		"firstName":   map[string]interface{}{"type": "string", "minLength": 1},
		"lastName":    map[string]interface{}{"type": "string", "minLength": 1},
		"dateOfBirth": prop("string", "date-time"),
		"email":       prop("string", "email"),
		"phone":       prop("string", ""),
	}
	g.AddSchema("CreatePatient", object(patientInput, "firstName", "lastName", "dateOfBirth"))
	g.AddSchema("UpdatePatient", object(patientInput))

	voiceNoteInput := map[string]interface{}{
		"patientId":  prop("string", "uuid"),
		"doctorId":   prop("string", "uuid"),
		"duration":   map[string]interface{}{"type": "number", "exclusiveMinimum": true, "minimum": 0},
		"recordedAt": prop("string", "date-time"),
		"status":     statusProp(),
		"fileSize":   prop("number", ""),
		"format":     prop("string", ""),
		"location":   prop("string", ""),
	}
	g.AddSchema("CreateVoiceNote", object(voiceNoteInput, "patientId", "doctorId", "duration", "recordedAt", "status"))
	g.AddSchema("UpdateVoiceNote", object(voiceNoteInput))

	g.AddSchema("CreateSummary", object(map[string]interface{}{
		"voiceNoteId":     prop("string", "uuid"),
		"content":         map[string]interface{}{"type": "string", "minLength": minSummaryLength},
		"keyPoints":       map[string]interface{}{"type": "array", "items": prop("string", "")},
		"recommendations": map[string]interface{}{"type": "array", "items": prop("string", "")},
		"generatedAt":     prop("string", "date-time"),
	}, "voiceNoteId", "content", "generatedAt"))

	id := []openapi.Param{{Name: "id", In: "path", Type: "string", Format: "uuid"}}
	page := []openapi.Param{
		{Name: "limit", In: "query", Type: "integer", Description: "Maximum number of records to return"},
		{Name: "offset", In: "query", Type: "integer", Description: "Number of records to skip"},
	}
	filter := func(name string) []openapi.Param {
		return append([]openapi.Param{{Name: name, In: "query", Type: "string", Format: "uuid"}}, page...)
	}
	badRequest := []int{http.StatusBadRequest}
	notFound := []int{http.StatusNotFound}
	both := []int{http.StatusBadRequest, http.StatusNotFound}

	g.AddOperations(
		openapi.Operation{Method: http.MethodGet, Path: "/api/patients", ID: "listPatients", Summary: "List patients, newest first", Tag: "Patients", Params: page, ResponseSchema: "Patient", List: true},
		openapi.Operation{Method: http.MethodGet, Path: "/api/patients/:id", ID: "getPatient", Summary: "Get a patient with voice notes", Tag: "Patients", Params: id, ResponseSchema: "Patient", ErrorStatuses: notFound},
		openapi.Operation{Method: http.MethodPost, Path: "/api/patients", ID: "createPatient", Summary: "Create a patient", Tag: "Patients", RequestSchema: "CreatePatient", ResponseSchema: "Patient", SuccessStatus: http.StatusCreated, ErrorStatuses: badRequest},
		openapi.Operation{Method: http.MethodPatch, Path: "/api/patients/:id", ID: "updatePatient", Summary: "Update a patient", Tag: "Patients", Params: id, RequestSchema: "UpdatePatient", ResponseSchema: "Patient", ErrorStatuses: both},
		openapi.Operation{Method: http.MethodDelete, Path: "/api/patients/:id", ID: "deletePatient", Summary: "Delete a patient with its voice notes and summaries", Tag: "Patients", Params: id, SuccessStatus: http.StatusNoContent, ErrorStatuses: notFound},

		openapi.Operation{Method: http.MethodGet, Path: "/api/voice-notes", ID: "listVoiceNotes", Summary: "List voice notes, newest recording first", Tag: "Voice notes", Params: filter("patientId"), ResponseSchema: "VoiceNote", List: true},
		openapi.Operation{Method: http.MethodGet, Path: "/api/voice-notes/:id", ID: "getVoiceNote", Summary: "Get a voice note with patient and summaries", Tag: "Voice notes", Params: id, ResponseSchema: "VoiceNote", ErrorStatuses: notFound},
		openapi.Operation{Method: http.MethodPost, Path: "/api/voice-notes", ID: "createVoiceNote", Summary: "Create a voice note", Tag: "Voice notes", RequestSchema: "CreateVoiceNote", ResponseSchema: "VoiceNote", SuccessStatus: http.StatusCreated, ErrorStatuses: badRequest},
		openapi.Operation{Method: http.MethodPatch, Path: "/api/voice-notes/:id", ID: "updateVoiceNote", Summary: "Update a voice note", Tag: "Voice notes", Params: id, RequestSchema: "UpdateVoiceNote", ResponseSchema: "VoiceNote", ErrorStatuses: both},
		openapi.Operation{Method: http.MethodDelete, Path: "/api/voice-notes/:id", ID: "deleteVoiceNote", Summary: "Delete a voice note with its summaries", Tag: "Voice notes", Params: id, SuccessStatus: http.StatusNoContent, ErrorStatuses: notFound},

		openapi.Operation{Method: http.MethodGet, Path: "/api/summaries", ID: "listSummaries", Summary: "List summaries, newest first", Tag: "Summaries", Params: filter("voiceNoteId"), ResponseSchema: "Summary", List: true},
		openapi.Operation{Method: http.MethodGet, Path: "/api/summaries/:id", ID: "getSummary", Summary: "Get a summary with its voice note and patient", Tag: "Summaries", Params: id, ResponseSchema: "Summary", ErrorStatuses: notFound},
		openapi.Operation{Method: http.MethodPost, Path: "/api/summaries", ID: "createSummary", Summary: "Create a summary", Tag: "Summaries", RequestSchema: "CreateSummary", ResponseSchema: "Summary", SuccessStatus: http.StatusCreated, ErrorStatuses: badRequest},
	)
}
