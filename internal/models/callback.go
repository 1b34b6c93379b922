package models

import (
	"encoding/json"
	"strconv"
)

// ResultEnvelope is the gateway's asynchronous result payload as delivered to
// the webhook receiver.
type ResultEnvelope struct {
	Result ResultBody `json:"Result"`
}

// ResultBody carries the outcome of one asynchronous operation. ResultCode is
// numeric on the wire for some operation kinds and a string for others;
// json.Number tolerates both.
type ResultBody struct {
	ResultType               json.Number      `json:"ResultType"`
	ResultCode               json.Number      `json:"ResultCode"`
	ResultDesc               string           `json:"ResultDesc"`
	OriginatorConversationID string           `json:"OriginatorConversationID"`
	ConversationID           string           `json:"ConversationID"`
	TransactionID            string           `json:"TransactionID"`
	ResultParameters         ResultParameters `json:"ResultParameters"`
}

// ResultParameters wraps the ordered key/value list the gateway nests results
// in.
type ResultParameters struct {
	ResultParameter []ResultParameter `json:"ResultParameter"`
}

// ResultParameter is a single key/value pair from the result parameter list.
type ResultParameter struct {
	Key   string `json:"Key"`
	Value any    `json:"Value"`
}

// TimeoutEnvelope is the gateway's timeout notice. Only the conversation id
// is guaranteed; some deliveries nest it under Result.
type TimeoutEnvelope struct {
	ConversationID           string      `json:"ConversationID"`
	OriginatorConversationID string      `json:"OriginatorConversationID"`
	Result                   *ResultBody `json:"Result,omitempty"`
}

// ResolveConversationID returns the conversation id wherever the payload
// carried it.
func (t *TimeoutEnvelope) ResolveConversationID() string {
	if t.ConversationID != "" {
		return t.ConversationID
	}
	if t.Result != nil {
		return t.Result.ConversationID
	}
	return ""
}

// CallbackResult is the flattened, single-use form of a result payload
// consumed by the correlator.
type CallbackResult struct {
	ConversationID           string
	OriginatorConversationID string
	ResultCode               string
	ResultDesc               string
	Parameters               map[string]string
}

// ToCallbackResult flattens the envelope: the ordered parameter list becomes
// a map keyed by parameter name, last value winning on duplicates.
func (e *ResultEnvelope) ToCallbackResult() *CallbackResult {
	cb := &CallbackResult{
		ConversationID:           e.Result.ConversationID,
		OriginatorConversationID: e.Result.OriginatorConversationID,
		ResultCode:               e.Result.ResultCode.String(),
		ResultDesc:               e.Result.ResultDesc,
	}
	if len(e.Result.ResultParameters.ResultParameter) > 0 {
		cb.Parameters = make(map[string]string, len(e.Result.ResultParameters.ResultParameter))
		for _, p := range e.Result.ResultParameters.ResultParameter {
			cb.Parameters[p.Key] = stringifyValue(p.Value)
		}
	}
	return cb
}

// stringifyValue renders a result parameter value as a string. Whole numbers
// keep their integer form.
func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
