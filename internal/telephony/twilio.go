// Package telephony purchases phone numbers from the telephony provider.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNoNumbersAvailable is returned when the inventory search comes back empty.
var ErrNoNumbersAvailable = errors.New("no numbers available")

// PurchasedNumber is a number now owned by our account.
type PurchasedNumber struct {
	SID         string
	PhoneNumber string
}

// numberAPI is the part of the Twilio v2010 API we call.
type numberAPI interface {
	ListAvailablePhoneNumberMobile(countryCode string, params *api.ListAvailablePhoneNumberMobileParams) ([]api.ApiV2010AvailablePhoneNumberMobile, error)
	CreateIncomingPhoneNumber(params *api.CreateIncomingPhoneNumberParams) (*api.ApiV2010IncomingPhoneNumber, error)
}

// TwilioProvider searches and buys mobile numbers in one country.
type TwilioProvider struct {
	api        numberAPI
	accountSID string
	authToken  string
	country    string
}

// NewTwilioProvider creates a provider using account credentials.
func NewTwilioProvider(accountSID, authToken, country string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{api: client.Api, accountSID: accountSID, authToken: authToken, country: strings.ToUpper(country)}
}

// Country returns the ISO code numbers are searched in.
func (p *TwilioProvider) Country() string { return p.country }

// AccountSID and AuthToken are handed to the voice platform when importing
// a purchased number.
func (p *TwilioProvider) AccountSID() string { return p.accountSID }

// AuthToken returns the account auth token.
func (p *TwilioProvider) AuthToken() string { return p.authToken }

// FindMobileNumber returns the first available mobile number, or
// ErrNoNumbersAvailable.
func (p *TwilioProvider) FindMobileNumber(ctx context.Context) (string, error) {
	_, span := otel.Tracer("telephony").Start(ctx, "TwilioProvider.FindMobileNumber")
	defer span.End()
	span.SetAttributes(attribute.String("country", p.country))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := &api.ListAvailablePhoneNumberMobileParams{}
	params.SetLimit(1)
	nums, err := p.api.ListAvailablePhoneNumberMobile(p.country, params)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("search %s mobile numbers: %w", p.country, err)
	}
	for _, n := range nums {
		if n.PhoneNumber != nil && *n.PhoneNumber != "" {
			return *n.PhoneNumber, nil
		}
	}
	return "", ErrNoNumbersAvailable
}

// Purchase buys number and labels it with friendlyName.
func (p *TwilioProvider) Purchase(ctx context.Context, number, friendlyName string) (*PurchasedNumber, error) {
	_, span := otel.Tracer("telephony").Start(ctx, "TwilioProvider.Purchase")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &api.CreateIncomingPhoneNumberParams{}
	params.SetPhoneNumber(number)
	params.SetFriendlyName(friendlyName)
	res, err := p.api.CreateIncomingPhoneNumber(params)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("purchase %s: %w", number, err)
	}
	out := &PurchasedNumber{PhoneNumber: number}
	if res.Sid != nil {
		out.SID = *res.Sid
	}
	if res.PhoneNumber != nil && *res.PhoneNumber != "" {
		out.PhoneNumber = *res.PhoneNumber
	}
	return out, nil
}
