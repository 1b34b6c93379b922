package daraja

import "testing"

func TestResultCodeHelpers(t *testing.T) {
	if !IsSuccess(RCSuccess) || IsSuccess(RCCancelledByUser) {
		t.Error("IsSuccess misclassifies")
	}
	if !IsCancelled(RCCancelledByUser) || IsCancelled(RCSuccess) {
		t.Error("IsCancelled misclassifies")
	}
	if !IsTimeout(RCRequestTimeout) || IsTimeout(RCSuccess) {
		t.Error("IsTimeout misclassifies")
	}
}

func TestDescribeResultCode(t *testing.T) {
	if got := DescribeResultCode(RCInvalidInitiator); got != "The initiator information is invalid" {
		t.Errorf("known code = %q", got)
	}
	if got := DescribeResultCode("9999"); got != "Unknown result code: 9999" {
		t.Errorf("unknown code = %q", got)
	}
}
