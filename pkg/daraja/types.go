package daraja

import "fmt"

// Environment selects which gateway base URL set the client talks to.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// CommandID identifies the gateway transaction command.
type CommandID string

const (
	// C2B commands
	CommandCustomerPayBillOnline  CommandID = "CustomerPayBillOnline"
	CommandCustomerBuyGoodsOnline CommandID = "CustomerBuyGoodsOnline"

	// B2C commands
	CommandSalaryPayment    CommandID = "SalaryPayment"
	CommandBusinessPayment  CommandID = "BusinessPayment"
	CommandPromotionPayment CommandID = "PromotionPayment"

	// B2B commands
	CommandBusinessPayBill            CommandID = "BusinessPayBill"
	CommandBusinessBuyGoods           CommandID = "BusinessBuyGoods"
	CommandDisburseFundsToBusiness    CommandID = "DisburseFundsToBusiness"
	CommandBusinessToBusinessTransfer CommandID = "BusinessToBusinessTransfer"

	// Utility commands
	CommandAccountBalance         CommandID = "AccountBalance"
	CommandTransactionStatusQuery CommandID = "TransactionStatusQuery"
	CommandTransactionReversal    CommandID = "TransactionReversal"
)

// IdentifierType tells the gateway how to interpret a party identifier.
type IdentifierType string

const (
	IdentifierMSISDN       IdentifierType = "1"
	IdentifierTill         IdentifierType = "2"
	IdentifierShortCode    IdentifierType = "4"
	IdentifierOrganization IdentifierType = "11"
)

// ResponseType controls C2B validation behavior when the validation endpoint
// is unreachable.
type ResponseType string

const (
	ResponseCompleted ResponseType = "Completed"
	ResponseCancelled ResponseType = "Cancelled"
)

// TrxCode is the QR transaction code.
type TrxCode string

const (
	TrxBuyGoods      TrxCode = "BG"
	TrxWithdrawAgent TrxCode = "WA"
	TrxPayBill       TrxCode = "PB"
	TrxSendMoney     TrxCode = "SM"
)

// Config holds gateway credentials and environment selection. Values are
// fixed at client construction.
type Config struct {
	ConsumerKey       string
	ConsumerSecret    string
	BusinessShortCode string
	PassKey           string
	Environment       Environment
	// InitiatorName and InitiatorPassword are required only for elevated
	// operations (B2C, B2B, balance, status, reversal). The password is
	// forwarded verbatim as the SecurityCredential; operators targeting
	// production supply a value already encrypted against the gateway
	// certificate.
	InitiatorName     string
	InitiatorPassword string
	// BaseURL overrides the environment-derived base URL when set. Used for
	// tests and outbound proxies.
	BaseURL string
}

// TokenResponse is the oauth exchange response. ExpiresIn is a string of
// seconds on the wire.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// errorResponse is the gateway error body shape for non-2xx responses.
type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// STKPushInput carriers caller-supplied fields for a push-payment prompt.
type STKPushInput struct {
	Amount           int    `json:"amount"`
	PhoneNumber      string `json:"phoneNumber"`
	CallbackURL      string `json:"callbackUrl"`
	AccountReference string `json:"accountReference"`
	TransactionDesc  string `json:"transactionDesc"`
}

// Validate checks field constraints. No network call is made on failure.
func (in *STKPushInput) Validate() error {
	if in.Amount <= 0 || in.Amount > 70000 {
		return &ValidationError{Field: "amount", Message: "must be between 1 and 70000"}
	}
	if in.CallbackURL == "" {
		return &ValidationError{Field: "callbackUrl", Message: "is required"}
	}
	if err := validateMaxLen("accountReference", in.AccountReference, 12, true); err != nil {
		return err
	}
	return validateMaxLen("transactionDesc", in.TransactionDesc, 13, true)
}

type stkPushRequest struct {
	BusinessShortCode string    `json:"BusinessShortCode"`
	Password          string    `json:"Password"`
	Timestamp         string    `json:"Timestamp"`
	TransactionType   CommandID `json:"TransactionType"`
	Amount            int       `json:"Amount"`
	PartyA            string    `json:"PartyA"`
	PartyB            string    `json:"PartyB"`
	PhoneNumber       string    `json:"PhoneNumber"`
	CallBackURL       string    `json:"CallBackURL"`
	AccountReference  string    `json:"AccountReference"`
	TransactionDesc   string    `json:"TransactionDesc"`
}

// STKPushResponse is the synchronous acknowledgment for a push payment. The
// CheckoutRequestID correlates the later callback.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKQueryInput identifies the push payment to query.
type STKQueryInput struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
}

func (in *STKQueryInput) Validate() error {
	if in.CheckoutRequestID == "" {
		return &ValidationError{Field: "checkoutRequestId", Message: "is required"}
	}
	return nil
}

type stkQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// STKQueryResponse reports the current state of a push payment.
type STKQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// C2BRegisterInput holds the merchant callback URLs to register.
type C2BRegisterInput struct {
	ConfirmationURL string       `json:"confirmationUrl"`
	ValidationURL   string       `json:"validationUrl"`
	ResponseType    ResponseType `json:"responseType"`
}

func (in *C2BRegisterInput) Validate() error {
	if in.ConfirmationURL == "" {
		return &ValidationError{Field: "confirmationUrl", Message: "is required"}
	}
	if in.ValidationURL == "" {
		return &ValidationError{Field: "validationUrl", Message: "is required"}
	}
	return nil
}

type c2bRegisterRequest struct {
	ShortCode       string       `json:"ShortCode"`
	ResponseType    ResponseType `json:"ResponseType"`
	ConfirmationURL string       `json:"ConfirmationURL"`
	ValidationURL   string       `json:"ValidationURL"`
}

// C2BSimulateInput describes a simulated customer payment. Sandbox only.
type C2BSimulateInput struct {
	Amount        int       `json:"amount"`
	MSISDN        string    `json:"msisdn"`
	CommandID     CommandID `json:"commandId"`
	BillRefNumber string    `json:"billRefNumber"`
}

func (in *C2BSimulateInput) Validate() error {
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	return nil
}

type c2bSimulateRequest struct {
	ShortCode     string    `json:"ShortCode"`
	CommandID     CommandID `json:"CommandID"`
	Amount        int       `json:"Amount"`
	Msisdn        string    `json:"Msisdn"`
	BillRefNumber string    `json:"BillRefNumber,omitempty"`
}

// B2CInput describes a business-to-customer disbursement.
type B2CInput struct {
	Amount          int       `json:"amount"`
	PartyB          string    `json:"partyB"`
	CommandID       CommandID `json:"commandId"`
	Remarks         string    `json:"remarks"`
	QueueTimeoutURL string    `json:"queueTimeoutUrl"`
	ResultURL       string    `json:"resultUrl"`
	Occasion        string    `json:"occasion"`
}

func (in *B2CInput) Validate() error {
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if in.QueueTimeoutURL == "" || in.ResultURL == "" {
		return &ValidationError{Field: "resultUrl", Message: "result and timeout URLs are required"}
	}
	if err := validateMaxLen("remarks", in.Remarks, 100, true); err != nil {
		return err
	}
	return validateMaxLen("occasion", in.Occasion, 100, false)
}

type b2cRequest struct {
	InitiatorName      string    `json:"InitiatorName"`
	SecurityCredential string    `json:"SecurityCredential"`
	CommandID          CommandID `json:"CommandID"`
	Amount             int       `json:"Amount"`
	PartyA             string    `json:"PartyA"`
	PartyB             string    `json:"PartyB"`
	Remarks            string    `json:"Remarks"`
	QueueTimeOutURL    string    `json:"QueueTimeOutURL"`
	ResultURL          string    `json:"ResultURL"`
	Occasion           string    `json:"Occasion,omitempty"`
}

// B2BInput describes a business-to-business transfer.
type B2BInput struct {
	Amount           int       `json:"amount"`
	PartyB           string    `json:"partyB"`
	CommandID        CommandID `json:"commandId"`
	Remarks          string    `json:"remarks"`
	QueueTimeoutURL  string    `json:"queueTimeoutUrl"`
	ResultURL        string    `json:"resultUrl"`
	AccountReference string    `json:"accountReference"`
}

func (in *B2BInput) Validate() error {
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if in.PartyB == "" {
		return &ValidationError{Field: "partyB", Message: "is required"}
	}
	if in.QueueTimeoutURL == "" || in.ResultURL == "" {
		return &ValidationError{Field: "resultUrl", Message: "result and timeout URLs are required"}
	}
	if err := validateMaxLen("remarks", in.Remarks, 100, true); err != nil {
		return err
	}
	return validateMaxLen("accountReference", in.AccountReference, 12, true)
}

type b2bRequest struct {
	InitiatorName      string    `json:"Initiator"`
	SecurityCredential string    `json:"SecurityCredential"`
	CommandID          CommandID `json:"CommandID"`
	Amount             int       `json:"Amount"`
	PartyA             string    `json:"PartyA"`
	PartyB             string    `json:"PartyB"`
	Remarks            string    `json:"Remarks"`
	QueueTimeOutURL    string    `json:"QueueTimeOutURL"`
	ResultURL          string    `json:"ResultURL"`
	AccountReference   string    `json:"AccountReference"`
}

// BalanceInput describes an account balance query.
type BalanceInput struct {
	IdentifierType  IdentifierType `json:"identifierType"`
	Remarks         string         `json:"remarks"`
	QueueTimeoutURL string         `json:"queueTimeoutUrl"`
	ResultURL       string         `json:"resultUrl"`
}

func (in *BalanceInput) Validate() error {
	if in.QueueTimeoutURL == "" || in.ResultURL == "" {
		return &ValidationError{Field: "resultUrl", Message: "result and timeout URLs are required"}
	}
	return validateMaxLen("remarks", in.Remarks, 100, true)
}

type balanceRequest struct {
	InitiatorName      string         `json:"Initiator"`
	SecurityCredential string         `json:"SecurityCredential"`
	CommandID          CommandID      `json:"CommandID"`
	PartyA             string         `json:"PartyA"`
	IdentifierType     IdentifierType `json:"IdentifierType"`
	Remarks            string         `json:"Remarks"`
	QueueTimeOutURL    string         `json:"QueueTimeOutURL"`
	ResultURL          string         `json:"ResultURL"`
}

// StatusInput describes a transaction status query.
type StatusInput struct {
	TransactionID   string         `json:"transactionId"`
	IdentifierType  IdentifierType `json:"identifierType"`
	ResultURL       string         `json:"resultUrl"`
	QueueTimeoutURL string         `json:"queueTimeoutUrl"`
	Remarks         string         `json:"remarks"`
	Occasion        string         `json:"occasion"`
}

func (in *StatusInput) Validate() error {
	if in.TransactionID == "" {
		return &ValidationError{Field: "transactionId", Message: "is required"}
	}
	if in.QueueTimeoutURL == "" || in.ResultURL == "" {
		return &ValidationError{Field: "resultUrl", Message: "result and timeout URLs are required"}
	}
	if err := validateMaxLen("remarks", in.Remarks, 100, true); err != nil {
		return err
	}
	return validateMaxLen("occasion", in.Occasion, 100, false)
}

type statusRequest struct {
	InitiatorName      string         `json:"Initiator"`
	SecurityCredential string         `json:"SecurityCredential"`
	CommandID          CommandID      `json:"CommandID"`
	TransactionID      string         `json:"TransactionID"`
	PartyA             string         `json:"PartyA"`
	IdentifierType     IdentifierType `json:"IdentifierType"`
	ResultURL          string         `json:"ResultURL"`
	QueueTimeOutURL    string         `json:"QueueTimeOutURL"`
	Remarks            string         `json:"Remarks"`
	Occasion           string         `json:"Occasion,omitempty"`
}

// ReversalInput describes a transaction reversal.
type ReversalInput struct {
	TransactionID          string         `json:"transactionId"`
	Amount                 int            `json:"amount"`
	ReceiverParty          string         `json:"receiverParty"`
	ReceiverIdentifierType IdentifierType `json:"receiverIdentifierType"`
	ResultURL              string         `json:"resultUrl"`
	QueueTimeoutURL        string         `json:"queueTimeoutUrl"`
	Remarks                string         `json:"remarks"`
	Occasion               string         `json:"occasion"`
}

func (in *ReversalInput) Validate() error {
	if in.TransactionID == "" {
		return &ValidationError{Field: "transactionId", Message: "is required"}
	}
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if in.ReceiverParty == "" {
		return &ValidationError{Field: "receiverParty", Message: "is required"}
	}
	if in.QueueTimeoutURL == "" || in.ResultURL == "" {
		return &ValidationError{Field: "resultUrl", Message: "result and timeout URLs are required"}
	}
	if err := validateMaxLen("remarks", in.Remarks, 100, true); err != nil {
		return err
	}
	return validateMaxLen("occasion", in.Occasion, 100, false)
}

type reversalRequest struct {
	InitiatorName      string         `json:"Initiator"`
	SecurityCredential string         `json:"SecurityCredential"`
	CommandID          CommandID      `json:"CommandID"`
	TransactionID      string         `json:"TransactionID"`
	Amount             int            `json:"Amount"`
	ReceiverParty      string         `json:"ReceiverParty"`
	// The gateway wire format carries this misspelling.
	ReceiverIdentifierType IdentifierType `json:"RecieverIdentifierType"`
	ResultURL              string         `json:"ResultURL"`
	QueueTimeOutURL        string         `json:"QueueTimeOutURL"`
	Remarks                string         `json:"Remarks"`
	Occasion               string         `json:"Occasion,omitempty"`
}

// QRInput describes a dynamic QR code request.
type QRInput struct {
	MerchantName string  `json:"merchantName"`
	RefNo        string  `json:"refNo"`
	Amount       int     `json:"amount"`
	TrxCode      TrxCode `json:"trxCode"`
	CPI          string  `json:"cpi"`
	Size         string  `json:"size"`
}

func (in *QRInput) Validate() error {
	if err := validateMaxLen("merchantName", in.MerchantName, 22, true); err != nil {
		return err
	}
	if err := validateMaxLen("refNo", in.RefNo, 12, true); err != nil {
		return err
	}
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	switch in.TrxCode {
	case TrxBuyGoods, TrxWithdrawAgent, TrxPayBill, TrxSendMoney:
	default:
		return &ValidationError{Field: "trxCode", Message: "must be one of BG, WA, PB, SM"}
	}
	if in.CPI == "" {
		return &ValidationError{Field: "cpi", Message: "is required"}
	}
	return nil
}

type qrRequest struct {
	MerchantName string  `json:"MerchantName"`
	RefNo        string  `json:"RefNo"`
	Amount       int     `json:"Amount"`
	TrxCode      TrxCode `json:"TrxCode"`
	CPI          string  `json:"CPI"`
	Size         string  `json:"Size"`
}

// QRResponse carries the generated QR code payload.
type QRResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	RequestID           string `json:"RequestID"`
	QRCode              string `json:"QRCode"`
}

// AsyncResponse is the shared synchronous acknowledgment for operations whose
// final result arrives via callback. The ConversationID correlates the
// callback to this submission.
type AsyncResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// validateMaxLen enforces presence (when required) and a maximum length.
func validateMaxLen(field, value string, max int, required bool) error {
	if required && value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if len(value) > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}
