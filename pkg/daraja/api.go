package daraja

import (
	"context"

	"github.com/rs/zerolog/log"
)

// STKPush initiates a push-payment prompt on the customer's phone. The final
// result arrives via the callback URL; the returned CheckoutRequestID is the
// correlation key.
func (c *Client) STKPush(ctx context.Context, in STKPushInput) (*STKPushResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	timestamp := generateTimestamp(c.now())
	req := stkPushRequest{
		BusinessShortCode: c.config.BusinessShortCode,
		Password:          generatePassword(c.config.BusinessShortCode, c.config.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   CommandCustomerPayBillOnline,
		Amount:            in.Amount,
		PartyA:            phone,
		PartyB:            c.config.BusinessShortCode,
		PhoneNumber:       phone,
		CallBackURL:       in.CallbackURL,
		AccountReference:  in.AccountReference,
		TransactionDesc:   in.TransactionDesc,
	}

	log.Info().
		Int("amount", in.Amount).
		Str("phone_number", phone).
		Str("account_reference", in.AccountReference).
		Msg("Initiating STK push")

	var resp STKPushResponse
	if err := c.doRequest(ctx, pathSTKPush, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// STKQuery queries the current state of a push payment.
func (c *Client) STKQuery(ctx context.Context, in STKQueryInput) (*STKQueryResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	timestamp := generateTimestamp(c.now())
	req := stkQueryRequest{
		BusinessShortCode: c.config.BusinessShortCode,
		Password:          generatePassword(c.config.BusinessShortCode, c.config.PassKey, timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: in.CheckoutRequestID,
	}

	var resp STKQueryResponse
	if err := c.doRequest(ctx, pathSTKQuery, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// C2BRegister registers the merchant confirmation and validation URLs.
func (c *Client) C2BRegister(ctx context.Context, in C2BRegisterInput) (*AsyncResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ResponseType == "" {
		in.ResponseType = ResponseCompleted
	}

	req := c2bRegisterRequest{
		ShortCode:       c.config.BusinessShortCode,
		ResponseType:    in.ResponseType,
		ConfirmationURL: in.ConfirmationURL,
		ValidationURL:   in.ValidationURL,
	}

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathC2BRegister, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// C2BSimulate simulates a customer payment. Sandbox only: simulated payments
// must never reach the live gateway.
func (c *Client) C2BSimulate(ctx context.Context, in C2BSimulateInput) (*AsyncResponse, error) {
	if c.config.Environment == EnvironmentProduction {
		return nil, &ConfigurationError{Message: "C2B simulation is only available in the sandbox environment"}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	msisdn, err := NormalizePhone(in.MSISDN)
	if err != nil {
		return nil, err
	}
	if in.CommandID == "" {
		in.CommandID = CommandCustomerPayBillOnline
	}

	req := c2bSimulateRequest{
		ShortCode:     c.config.BusinessShortCode,
		CommandID:     in.CommandID,
		Amount:        in.Amount,
		Msisdn:        msisdn,
		BillRefNumber: in.BillRefNumber,
	}

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathC2BSimulate, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// B2C disburses money from the business to a customer. Requires initiator
// credentials; the result arrives via the result URL.
func (c *Client) B2C(ctx context.Context, in B2CInput) (*AsyncResponse, error) {
	if err := c.requireInitiator(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	partyB, err := NormalizePhone(in.PartyB)
	if err != nil {
		return nil, err
	}
	if in.CommandID == "" {
		in.CommandID = CommandBusinessPayment
	}

	req := b2cRequest{
		InitiatorName:      c.config.InitiatorName,
		SecurityCredential: c.config.InitiatorPassword,
		CommandID:          in.CommandID,
		Amount:             in.Amount,
		PartyA:             c.config.BusinessShortCode,
		PartyB:             partyB,
		Remarks:            in.Remarks,
		QueueTimeOutURL:    in.QueueTimeoutURL,
		ResultURL:          in.ResultURL,
		Occasion:           in.Occasion,
	}

	log.Info().
		Int("amount", in.Amount).
		Str("party_b", partyB).
		Str("command_id", string(in.CommandID)).
		Msg("Initiating B2C payment")

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathB2C, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// B2B transfers money to another business. Requires initiator credentials.
func (c *Client) B2B(ctx context.Context, in B2BInput) (*AsyncResponse, error) {
	if err := c.requireInitiator(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.CommandID == "" {
		in.CommandID = CommandBusinessPayBill
	}

	req := b2bRequest{
		InitiatorName:      c.config.InitiatorName,
		SecurityCredential: c.config.InitiatorPassword,
		CommandID:          in.CommandID,
		Amount:             in.Amount,
		PartyA:             c.config.BusinessShortCode,
		PartyB:             in.PartyB,
		Remarks:            in.Remarks,
		QueueTimeOutURL:    in.QueueTimeoutURL,
		ResultURL:          in.ResultURL,
		AccountReference:   in.AccountReference,
	}

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathB2B, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AccountBalance queries the business account balance. Requires initiator
// credentials.
func (c *Client) AccountBalance(ctx context.Context, in BalanceInput) (*AsyncResponse, error) {
	if err := c.requireInitiator(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.IdentifierType == "" {
		in.IdentifierType = IdentifierShortCode
	}

	req := balanceRequest{
		InitiatorName:      c.config.InitiatorName,
		SecurityCredential: c.config.InitiatorPassword,
		CommandID:          CommandAccountBalance,
		PartyA:             c.config.BusinessShortCode,
		IdentifierType:     in.IdentifierType,
		Remarks:            in.Remarks,
		QueueTimeOutURL:    in.QueueTimeoutURL,
		ResultURL:          in.ResultURL,
	}

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathBalance, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransactionStatus queries the status of any gateway transaction. Requires
// initiator credentials.
func (c *Client) TransactionStatus(ctx context.Context, in StatusInput) (*AsyncResponse, error) {
	if err := c.requireInitiator(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.IdentifierType == "" {
		in.IdentifierType = IdentifierShortCode
	}

	req := statusRequest{
		InitiatorName:      c.config.InitiatorName,
		SecurityCredential: c.config.InitiatorPassword,
		CommandID:          CommandTransactionStatusQuery,
		TransactionID:      in.TransactionID,
		PartyA:             c.config.BusinessShortCode,
		IdentifierType:     in.IdentifierType,
		ResultURL:          in.ResultURL,
		QueueTimeOutURL:    in.QueueTimeoutURL,
		Remarks:            in.Remarks,
		Occasion:           in.Occasion,
	}

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathStatus, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reverse reverses a completed transaction. Requires initiator credentials.
func (c *Client) Reverse(ctx context.Context, in ReversalInput) (*AsyncResponse, error) {
	if err := c.requireInitiator(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ReceiverIdentifierType == "" {
		in.ReceiverIdentifierType = IdentifierOrganization
	}

	req := reversalRequest{
		InitiatorName:          c.config.InitiatorName,
		SecurityCredential:     c.config.InitiatorPassword,
		CommandID:              CommandTransactionReversal,
		TransactionID:          in.TransactionID,
		Amount:                 in.Amount,
		ReceiverParty:          in.ReceiverParty,
		ReceiverIdentifierType: in.ReceiverIdentifierType,
		ResultURL:              in.ResultURL,
		QueueTimeOutURL:        in.QueueTimeoutURL,
		Remarks:                in.Remarks,
		Occasion:               in.Occasion,
	}

	log.Info().
		Str("transaction_id", in.TransactionID).
		Int("amount", in.Amount).
		Msg("Reversing transaction")

	var resp AsyncResponse
	if err := c.doRequest(ctx, pathReversal, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateQR generates a dynamic payment QR code. Synchronous; no callback.
func (c *Client) GenerateQR(ctx context.Context, in QRInput) (*QRResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Size == "" {
		in.Size = "300"
	}

	req := qrRequest{
		MerchantName: in.MerchantName,
		RefNo:        in.RefNo,
		Amount:       in.Amount,
		TrxCode:      in.TrxCode,
		CPI:          in.CPI,
		Size:         in.Size,
	}

	var resp QRResponse
	if err := c.doRequest(ctx, pathQR, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
