package mail

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/go-ntlmssp"
)

const (
	ewsNamespaceSOAP     = "http://schemas.xmlsoap.org/soap/envelope/"
	ewsNamespaceTypes    = "http://schemas.microsoft.com/exchange/services/2006/types"
	ewsNamespaceMessages = "http://schemas.microsoft.com/exchange/services/2006/messages"
	ewsCreateItemAction  = ewsNamespaceMessages + "/CreateItem"

	defaultEWSVersion   = "Exchange2013"
	maxEWSResponseBytes = 1 << 20
)

// EWSAuthScheme selects how EWS requests authenticate.
type EWSAuthScheme string

const (
	// EWSAuthNTLM negotiates NTLM, falling back to basic when the server asks for it.
	EWSAuthNTLM EWSAuthScheme = "ntlm"
	// EWSAuthBasic sends HTTP basic credentials only.
	EWSAuthBasic EWSAuthScheme = "basic"
)

// EWSBodyType is the EWS BodyType attribute.
type EWSBodyType string

const (
	EWSBodyHTML EWSBodyType = "HTML"
	EWSBodyText EWSBodyType = "Text"
)

var (
	// ErrEWSInvalidURL is returned when the service URL is not an absolute http(s) URL.
	ErrEWSInvalidURL = errors.New("ews url must be an absolute http or https url")
	// ErrEWSCredentialsRequired is returned when the username or password is empty.
	ErrEWSCredentialsRequired = errors.New("ews username and password are required")
	// ErrEWSAuthScheme is returned for an unknown EWSAuthScheme.
	ErrEWSAuthScheme = errors.New("ews auth scheme must be ntlm or basic")
	// ErrEWSNoRecipients is returned when To is empty.
	ErrEWSNoRecipients = errors.New("ews message has no recipients")
)

// EWSConfig configures an EWS session.
type EWSConfig struct {
	URL        string
	Username   string
	Password   string
	AuthScheme EWSAuthScheme
	// Transport is the base round tripper; defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Timeout bounds a whole request. Zero leaves it to the context.
	Timeout time.Duration
	// Version is sent as RequestServerVersion; defaults to Exchange2013.
	Version string
}

// EWSMessage is a single message submitted through CreateItem.
type EWSMessage struct {
	Subject     string
	Body        string
	BodyType    EWSBodyType
	To          []string
	FromName    string
	FromAddress string
}

// EWSResponseError is a non-success answer from the EWS endpoint.
type EWSResponseError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Class is the ResponseClass ("Error", "Warning") when the body was a CreateItem response.
	Class string
	// Code is the EWS ResponseCode, e.g. ErrorInvalidRecipients.
	Code    string
	Message string
}

func (e *EWSResponseError) Error() string {
	var b strings.Builder
	b.WriteString("ews:")
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		fmt.Fprintf(&b, " %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Code != "" {
		b.WriteString(" " + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// EWS is a short-lived Exchange Web Services session.
type EWS struct {
	endpoint string
	username string
	password string
	version  string
	client   *http.Client
}

// NewEWS validates cfg and builds a session. No request is made.
func NewEWS(cfg EWSConfig) (*EWS, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrEWSInvalidURL
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, ErrEWSCredentialsRequired
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	var rt http.RoundTripper
	switch cfg.AuthScheme {
	case EWSAuthNTLM, "":
		rt = ntlmssp.Negotiator{RoundTripper: base}
	case EWSAuthBasic:
		rt = base
	default:
		return nil, ErrEWSAuthScheme
	}

	version := cfg.Version
	if version == "" {
		version = defaultEWSVersion
	}

	return &EWS{
		endpoint: u.String(),
		username: cfg.Username,
		password: cfg.Password,
		version:  version,
		client:   &http.Client{Transport: rt, Timeout: cfg.Timeout},
	}, nil
}

// SendAndSaveCopy submits msg with MessageDisposition=SendAndSaveCopy, filing
// the sent copy in the sentitems folder.
func (e *EWS) SendAndSaveCopy(ctx context.Context, msg EWSMessage) error {
	if len(msg.To) == 0 {
		return ErrEWSNoRecipients
	}

	payload, err := e.createItemRequest(msg)
	if err != nil {
		return fmt.Errorf("ews: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ews: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Accept", "text/xml")
	req.Header.Set("SOAPAction", ewsCreateItemAction)
	req.SetBasicAuth(e.username, e.password)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ews: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEWSResponseBytes))
	if err != nil {
		return fmt.Errorf("ews: read response: %w", err)
	}

	return parseCreateItemResponse(resp.StatusCode, body)
}

// Close releases idle connections.
func (e *EWS) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *EWS) createItemRequest(msg EWSMessage) ([]byte, error) {
	bodyType := msg.BodyType
	if bodyType == "" {
		bodyType = EWSBodyText
	}

	recipients := make([]ewsMailbox, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, ewsMailbox{EmailAddress: to})
	}

	env := ewsEnvelope{
		SOAP:     ewsNamespaceSOAP,
		Types:    ewsNamespaceTypes,
		Messages: ewsNamespaceMessages,
		Header: ewsHeader{
			Version: ewsServerVersion{Version: e.version},
		},
		Body: ewsBody{
			CreateItem: ewsCreateItem{
				MessageDisposition: "SendAndSaveCopy",
				SavedItemFolderID: ewsSavedItemFolder{
					Folder: ewsDistinguishedFolder{ID: "sentitems"},
				},
				Items: ewsItems{
					Message: ewsMessage{
						Subject:      msg.Subject,
						Body:         ewsMessageBody{Type: string(bodyType), Content: msg.Body},
						ToRecipients: recipients,
						From: ewsFrom{
							Mailbox: ewsMailbox{Name: msg.FromName, EmailAddress: msg.FromAddress},
						},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func parseCreateItemResponse(status int, body []byte) error {
	var env ewsResponseEnvelope
	decodeErr := xml.Unmarshal(body, &env)

	if decodeErr == nil && env.Body.Fault != nil {
		return &EWSResponseError{
			StatusCode: status,
			Code:       strings.TrimSpace(env.Body.Fault.Code),
			Message:    strings.TrimSpace(env.Body.Fault.String),
		}
	}

	if status != http.StatusOK {
		return &EWSResponseError{StatusCode: status, Message: strings.TrimSpace(firstLine(body))}
	}
	if decodeErr != nil {
		return fmt.Errorf("ews: decode response: %w", decodeErr)
	}

	items := env.Body.CreateItemResponse.ResponseMessages.Items
	if len(items) == 0 {
		return &EWSResponseError{StatusCode: status, Message: "empty CreateItem response"}
	}

	for _, it := range items {
		if it.ResponseClass != "Success" {
			return &EWSResponseError{
				StatusCode: status,
				Class:      it.ResponseClass,
				Code:       it.ResponseCode,
				Message:    strings.TrimSpace(it.MessageText),
			}
		}
	}

	return nil
}

func firstLine(b []byte) string {
	line, _, _ := strings.Cut(string(b), "\n")
	if len(line) > 200 {
		line = line[:200]
	}
	return line
}

type ewsEnvelope struct {
	XMLName  xml.Name  `xml:"soap:Envelope"`
	SOAP     string    `xml:"xmlns:soap,attr"`
	Types    string    `xml:"xmlns:t,attr"`
	Messages string    `xml:"xmlns:m,attr"`
	Header   ewsHeader `xml:"soap:Header"`
	Body     ewsBody   `xml:"soap:Body"`
}

type ewsHeader struct {
	Version ewsServerVersion `xml:"t:RequestServerVersion"`
}

type ewsServerVersion struct {
	Version string `xml:"Version,attr"`
}

type ewsBody struct {
	CreateItem ewsCreateItem `xml:"m:CreateItem"`
}

type ewsCreateItem struct {
	MessageDisposition string             `xml:"MessageDisposition,attr"`
	SavedItemFolderID  ewsSavedItemFolder `xml:"m:SavedItemFolderId"`
	Items              ewsItems           `xml:"m:Items"`
}

type ewsSavedItemFolder struct {
	Folder ewsDistinguishedFolder `xml:"t:DistinguishedFolderId"`
}

type ewsDistinguishedFolder struct {
	ID string `xml:"Id,attr"`
}

type ewsItems struct {
	Message ewsMessage `xml:"t:Message"`
}

type ewsMessage struct {
	Subject      string         `xml:"t:Subject"`
	Body         ewsMessageBody `xml:"t:Body"`
	ToRecipients []ewsMailbox   `xml:"t:ToRecipients>t:Mailbox"`
	From         ewsFrom        `xml:"t:From"`
}

type ewsMessageBody struct {
	Type    string `xml:"BodyType,attr"`
	Content string `xml:",chardata"`
}

type ewsFrom struct {
	Mailbox ewsMailbox `xml:"t:Mailbox"`
}

type ewsMailbox struct {
	Name         string `xml:"t:Name,omitempty"`
	EmailAddress string `xml:"t:EmailAddress"`
}

// Response elements are matched by local name so any namespace prefix works.
type ewsResponseEnvelope struct {
	Body struct {
		Fault *struct {
			Code   string `xml:"faultcode"`
			String string `xml:"faultstring"`
		} `xml:"Fault"`
		CreateItemResponse struct {
			ResponseMessages struct {
				Items []struct {
					ResponseClass string `xml:"ResponseClass,attr"`
					MessageText   string `xml:"MessageText"`
					ResponseCode  string `xml:"ResponseCode"`
				} `xml:",any"`
			} `xml:"ResponseMessages"`
		} `xml:"CreateItemResponse"`
	} `xml:"Body"`
}
