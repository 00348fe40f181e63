package rpc

import (
	"errors"
	"io"
	"net/rpc"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/runtime"
	"github.com/colorfulnotion/treeprogram/types"
)

// Client is a typed wrapper around the tree service.
type Client struct {
	Client *rpc.Client
}

func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{Client: c}, nil
}

func NewClient(conn io.ReadWriteCloser) *Client {
	return &Client{Client: rpc.NewClient(conn)}
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// Invoke submits tx. A failed invocation returns its receipt together with
// an error carrying the receipt's message.
func (c *Client) Invoke(tx *runtime.Transaction) (*runtime.Receipt, error) {
	var receipt runtime.Receipt
	if err := c.Client.Call(ServiceName+".Invoke", *tx, &receipt); err != nil {
		return nil, err
	}
	if receipt.Error != "" {
		return &receipt, errors.New(receipt.Error)
	}
	return &receipt, nil
}

func (c *Client) Airdrop(addr common.Address, amount uint64) (uint64, error) {
	var balance uint64
	err := c.Client.Call(ServiceName+".Airdrop", AirdropRequest{Address: addr, Amount: amount}, &balance)
	return balance, err
}

func (c *Client) Account(addr common.Address) (*types.Account, bool, error) {
	var res AccountResponse
	if err := c.Client.Call(ServiceName+".Account", addr, &res); err != nil {
		return nil, false, err
	}
	return res.Account, res.Found, nil
}

func (c *Client) Describe(payer common.Address) (*runtime.Receipt, error) {
	var receipt runtime.Receipt
	if err := c.Client.Call(ServiceName+".Describe", payer, &receipt); err != nil {
		return nil, err
	}
	if receipt.Error != "" {
		return &receipt, errors.New(receipt.Error)
	}
	return &receipt, nil
}

func (c *Client) ProgramID() (common.Address, error) {
	var id common.Address
	err := c.Client.Call(ServiceName+".ProgramID", []string{}, &id)
	return id, err
}
