package money

import (
	"context"
	"testing"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"

	"github.com/gridwork/gridpay/utils/clients/paypal"
	appctx "github.com/gridwork/gridpay/utils/context"
)

type loadURLCall struct {
	ObjectID uuid.UUID
	Message  string
	URL      string
}

type fakeClient struct {
	loadURLs []loadURLCall
	messages []string
}

func (c *fakeClient) SendLoadURL(objectName string, objectID uuid.UUID, ownerID uuid.UUID, groupOwned bool, message string, url string) {
	c.loadURLs = append(c.loadURLs, loadURLCall{ObjectID: objectID, Message: message, URL: url})
}

func (c *fakeClient) SendInstantMessage(fromName string, message string) {
	c.messages = append(c.messages, message)
}

type deliveredObject struct {
	BuyerID  uuid.UUID
	ObjectID uuid.UUID
	FolderID uuid.UUID
	SaleType byte
	Price    int64
}

type fakeGrid struct {
	clients     map[uuid.UUID]*fakeClient
	objects     map[uuid.UUID]*SceneObject
	delivered   []deliveredObject
	deliverErr  error
	transfers   []LandSale
	transferErr error
}

func newFakeGrid() *fakeGrid {
	return &fakeGrid{
		clients: map[uuid.UUID]*fakeClient{},
		objects: map[uuid.UUID]*SceneObject{},
	}
}

func (g *fakeGrid) LocateClient(agentID uuid.UUID) (ClientHandle, bool) {
	c, ok := g.clients[agentID]
	if !ok {
		return nil, false
	}
	return c, true
}

func (g *fakeGrid) GetObject(objectID uuid.UUID) (*SceneObject, bool) {
	o, ok := g.objects[objectID]
	return o, ok
}

func (g *fakeGrid) DeliverObject(ctx context.Context, buyerID uuid.UUID, objectID uuid.UUID, folderID uuid.UUID, saleType byte, price int64) error {
	if g.deliverErr != nil {
		return g.deliverErr
	}
	g.delivered = append(g.delivered, deliveredObject{
		BuyerID:  buyerID,
		ObjectID: objectID,
		FolderID: folderID,
		SaleType: saleType,
		Price:    price,
	})
	return nil
}

func (g *fakeGrid) TransferLand(ctx context.Context, sale LandSale) error {
	if g.transferErr != nil {
		return g.transferErr
	}
	g.transfers = append(g.transfers, sale)
	return nil
}

type fakeDirectory struct {
	accounts map[uuid.UUID]*Account
	err      error
	calls    int
}

func (d *fakeDirectory) GetAccount(ctx context.Context, scopeID uuid.UUID, principalID uuid.UUID) (*Account, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.accounts[principalID], nil
}

func testContext(values map[appctx.CTXKey]interface{}) context.Context {
	ctx := context.WithValue(context.Background(), appctx.ExternalBaseURLCTXKey, "http://sim.example.com:9000")
	for k, v := range values {
		ctx = context.WithValue(ctx, k, v)
	}
	return ctx
}

func newTestService(t *testing.T, gateway paypal.Client, grid Grid, directory Directory, values map[appctx.CTXKey]interface{}) *Service {
	service, err := NewService(testContext(values), gateway, grid, directory)
	require.NoError(t, err)
	return service
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
