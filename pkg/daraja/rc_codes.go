package daraja

// Result code constants as delivered in callbacks and STK query responses.
const (
	RCSuccess                = "0"
	RCInsufficientFunds      = "1"
	RCLessThanMinimum        = "4"
	RCMoreThanMaximum        = "5"
	RCWouldExceedDailyLimit  = "6"
	RCWouldExceedMinBalance  = "7"
	RCUnresolvedPrimary      = "8"
	RCDebitAccountInvalid    = "11"
	RCInvalidCommand         = "12"
	RCInvalidInitiator       = "2001"
	RCCancelledByUser        = "1032"
	RCRequestTimeout         = "1037"
	RCUnableToLockSubscriber = "1001"
	RCInternalFailure        = "1025"
	RCPushRequestError       = "1019"
)

// rcDescriptions maps gateway result codes to operator-facing descriptions.
var rcDescriptions = map[string]string{
	RCSuccess:                "The service request is processed successfully",
	RCInsufficientFunds:      "The balance is insufficient for the transaction",
	RCLessThanMinimum:        "Amount is less than the minimum transaction value",
	RCMoreThanMaximum:        "Amount is more than the maximum transaction value",
	RCWouldExceedDailyLimit:  "Transaction would exceed the daily transfer limit",
	RCWouldExceedMinBalance:  "Transaction would exceed the minimum balance",
	RCUnresolvedPrimary:      "Unresolved primary party",
	RCDebitAccountInvalid:    "Debit account is invalid",
	RCInvalidCommand:         "Invalid command id",
	RCInvalidInitiator:       "The initiator information is invalid",
	RCCancelledByUser:        "The request was cancelled by the user",
	RCRequestTimeout:         "No response from the user, request timed out",
	RCUnableToLockSubscriber: "Unable to lock subscriber, a transaction is already in process",
	RCInternalFailure:        "An internal error occurred while processing the request",
	RCPushRequestError:       "Transaction failed while sending the push request",
}

// DescribeResultCode returns the description for a gateway result code, or a
// generic fallback for unknown codes.
func DescribeResultCode(rc string) string {
	if desc, ok := rcDescriptions[rc]; ok {
		return desc
	}
	return "Unknown result code: " + rc
}

// IsSuccess reports whether a result code indicates a completed operation.
func IsSuccess(rc string) bool {
	return rc == RCSuccess
}

// IsCancelled reports whether the customer declined the push prompt.
func IsCancelled(rc string) bool {
	return rc == RCCancelledByUser
}

// IsTimeout reports whether the push prompt expired unanswered.
func IsTimeout(rc string) bool {
	return rc == RCRequestTimeout
}
