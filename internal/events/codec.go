package events

import (
	"encoding/json"
	"fmt"
	"sort"
)

// registry maps every variant type to a payload constructor. The set is
// closed: decoding an unregistered type is an error, never a passthrough.
var registry = map[Type]func() Data{
	TypeCreateSubmission:   func() Data { return &CreateSubmission{} },
	TypeRemoveSubmission:   func() Data { return &RemoveSubmission{} },
	TypeConfirmContact:     func() Data { return &ConfirmContactInformation{} },
	TypeConfirmAuthorship:  func() Data { return &ConfirmAuthorship{} },
	TypeConfirmPolicy:      func() Data { return &ConfirmPolicy{} },
	TypeFinalizeSubmission: func() Data { return &FinalizeSubmission{} },
	TypeUnFinalize:         func() Data { return &UnFinalizeSubmission{} },
	TypePublish:            func() Data { return &Publish{} },

	TypeSetTitle:        func() Data { return &SetTitle{} },
	TypeSetAbstract:     func() Data { return &SetAbstract{} },
	TypeSetComments:     func() Data { return &SetComments{} },
	TypeSetDOI:          func() Data { return &SetDOI{} },
	TypeSetMSCClass:     func() Data { return &SetMSCClassification{} },
	TypeSetACMClass:     func() Data { return &SetACMClassification{} },
	TypeSetJournalRef:   func() Data { return &SetJournalReference{} },
	TypeSetReportNumber: func() Data { return &SetReportNumber{} },
	TypeSetAuthors:      func() Data { return &SetAuthors{} },
	TypeSetLicense:      func() Data { return &SetLicense{} },

	TypeSetPrimaryClassification:   func() Data { return &SetPrimaryClassification{} },
	TypeAddSecondaryClassification: func() Data { return &AddSecondaryClassification{} },
	TypeRemoveSecondaryClass:       func() Data { return &RemoveSecondaryClassification{} },

	TypeRequestWithdrawal: func() Data { return &RequestWithdrawal{} },
	TypeRequestCrossList:  func() Data { return &RequestCrossList{} },
	TypeApproveRequest:    func() Data { return &ApproveRequest{} },
	TypeRejectRequest:     func() Data { return &RejectRequest{} },
	TypeApplyRequest:      func() Data { return &ApplyRequest{} },

	TypeSetUploadPackage:    func() Data { return &SetUploadPackage{} },
	TypeUpdateUploadPackage: func() Data { return &UpdateUploadPackage{} },
	TypeUnsetUploadPackage:  func() Data { return &UnsetUploadPackage{} },
	TypeConfirmPreview:      func() Data { return &ConfirmPreview{} },

	TypeAddProcessStatus: func() Data { return &AddProcessStatus{} },

	TypeCreateComment:    func() Data { return &CreateComment{} },
	TypeDeleteComment:    func() Data { return &DeleteComment{} },
	TypeAddDelegate:      func() Data { return &AddDelegate{} },
	TypeRemoveDelegate:   func() Data { return &RemoveDelegate{} },
	TypeAddFlag:          func() Data { return &AddFlag{} },
	TypeRemoveFlag:       func() Data { return &RemoveFlag{} },
	TypeAddProposal:      func() Data { return &AddProposal{} },
	TypeAddHold:          func() Data { return &AddHold{} },
	TypeRemoveHold:       func() Data { return &RemoveHold{} },
	TypeAddAnnotation:    func() Data { return &AddAnnotation{} },
	TypeRemoveAnnotation: func() Data { return &RemoveAnnotation{} },
}

// Types lists all registered variant types in sorted order.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EncodePayload serializes an event payload for storage.
func EncodePayload(data Data) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", data.Type(), err)
	}
	return payload, nil
}

// DecodePayload deserializes a stored payload into its variant.
func DecodePayload(eventType Type, payload []byte) (Data, error) {
	build, ok := registry[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	data := build()
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, data); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", eventType, err)
		}
	}
	return data, nil
}
