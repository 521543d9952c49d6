package main

import (
	"context"
	"fmt"

	"github.com/arkade-os/tgpay/internal/config"
	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	readUpdatesCmd = &cli.Command{
		Name:   "read-updates",
		Usage:  "List pending chat updates without consuming them",
		Flags:  []cli.Flag{limitFlag},
		Action: readUpdatesAction,
	}
	purgeCmd = &cli.Command{
		Name:   "purge",
		Usage:  "Skip every pending chat update",
		Action: purgeAction,
	}
	registerSendCmd = &cli.Command{
		Name:  "register-send",
		Usage: "Let an address send payments as the handle receiving at it",
		Description: "Submits register-send on behalf of the owner of --address. The handle " +
			"must already receive at that address.",
		Flags:  []cli.Flag{addressFlag, handleFlag},
		Action: registerSendAction,
	}
	queryCmd = &cli.Command{
		Name:  "query",
		Usage: "Query the ledger state",
		Subcommands: cli.Commands{
			{
				Name:   "addr",
				Usage:  "Get the address registered for a handle",
				Flags:  []cli.Flag{handleFlag},
				Action: queryAddrAction,
			},
			{
				Name:   "handle",
				Usage:  "Get the handle registered for an address",
				Flags:  []cli.Flag{addressFlag},
				Action: queryHandleAction,
			},
			{
				Name:   "pending",
				Usage:  "Get the payments escrowed for a handle",
				Flags:  []cli.Flag{handleFlag},
				Action: queryPendingAction,
			},
			{
				Name:   "denoms",
				Usage:  "Get the whitelisted denominations",
				Action: queryDenomsAction,
			},
			{
				Name:   "admin",
				Usage:  "Get the admin or the manager service of the ledger",
				Action: queryAdminAction,
			},
			{
				Name:   "info",
				Usage:  "Get the ledger parameters",
				Action: queryInfoAction,
			},
		},
	}
)

func readUpdatesAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer cfg.Close()

	cursorSvc, err := cfg.CursorService()
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context, commandTimeout())
	defer cancel()

	offset, err := cursorSvc.GetOffset(reqCtx)
	if err != nil {
		return err
	}
	updates, err := cursorSvc.PeekUpdates(reqCtx, ctx.Int(limitFlagName))
	if err != nil {
		return err
	}

	type update struct {
		Id   int64  `json:"id"`
		From string `json:"from,omitempty"`
		Text string `json:"text,omitempty"`
	}
	resp := struct {
		Offset  *int64   `json:"offset"`
		Updates []update `json:"updates"`
	}{Offset: offset, Updates: make([]update, 0, len(updates))}
	for _, u := range updates {
		entry := update{Id: u.Id}
		if msg := u.GetMessage(); msg != nil {
			entry.Text = msg.Text
			if msg.From != nil {
				entry.From = msg.From.Username
			}
		}
		resp.Updates = append(resp.Updates, entry)
	}
	return printJSON(resp)
}

func purgeAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer cfg.Close()

	cursorSvc, err := cfg.CursorService()
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx.Context, commandTimeout())
	defer cancel()

	count, err := cursorSvc.Purge(reqCtx)
	if err != nil {
		return err
	}
	offset, err := cursorSvc.GetOffset(reqCtx)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"purged": count,
		"offset": offset,
	})
}

func registerSendAction(ctx *cli.Context) error {
	return withLedger(ctx, func(reqCtx context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		address := ctx.String(addressFlagName)
		handle := normalizeHandle(ctx.String(handleFlagName))
		res, lErr := svc.Execute(reqCtx, address, domain.RegisterSendMsg{Handle: handle})
		if lErr != nil {
			return lErr
		}
		attributes := make(map[string]string, len(res.Attributes))
		for _, attr := range res.Attributes {
			attributes[attr.Key] = attr.Value
		}
		return printJSON(attributes)
	})
}

func queryAddrAction(ctx *cli.Context) error {
	return withLedger(ctx, func(reqCtx context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		handle := normalizeHandle(ctx.String(handleFlagName))
		addr, qErr := svc.GetAddrByHandle(reqCtx, handle)
		if qErr != nil {
			return qErr
		}
		return printJSON(map[string]string{"tg_handle": handle, "chain_addr": addr})
	})
}

func queryHandleAction(ctx *cli.Context) error {
	return withLedger(ctx, func(reqCtx context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		addr := ctx.String(addressFlagName)
		handle, qErr := svc.GetHandleByAddr(reqCtx, addr)
		if qErr != nil {
			return qErr
		}
		return printJSON(map[string]string{"tg_handle": handle, "chain_addr": addr})
	})
}

func queryPendingAction(ctx *cli.Context) error {
	return withLedger(ctx, func(reqCtx context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		handle := normalizeHandle(ctx.String(handleFlagName))
		coins, qErr := svc.GetPendingPayments(reqCtx, handle)
		if qErr != nil {
			return qErr
		}
		pending := make([]map[string]string, 0, len(coins))
		for _, coin := range coins {
			pending = append(pending, map[string]string{
				"amount": coin.Amount.String(),
				"denom":  coin.Denom,
			})
		}
		return printJSON(map[string]interface{}{"tg_handle": handle, "pending": pending})
	})
}

func queryDenomsAction(ctx *cli.Context) error {
	return withLedger(ctx, func(_ context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		return printJSON(map[string][]string{"allowed_denoms": svc.GetAllowedDenoms()})
	})
}

func queryAdminAction(ctx *cli.Context) error {
	return withLedger(ctx, func(_ context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		if admin := svc.GetAdmin(); len(admin) > 0 {
			return printJSON(map[string]string{"admin": admin})
		}
		return printJSON(map[string]string{"manager_service": svc.GetManagerService()})
	})
}

func queryInfoAction(ctx *cli.Context) error {
	return withLedger(ctx, func(_ context.Context, cfg *config.Config) error {
		svc, err := cfg.OpenLedgerService()
		if err != nil {
			return err
		}
		info := svc.GetInfo()
		return printJSON(map[string]interface{}{
			"address":        info.Address,
			"address_prefix": info.AddressPrefix,
			"auth_mode":      info.AuthMode,
			"auth_address":   info.AuthAddress,
			"allowed_denoms": info.AllowedDenoms,
		})
	})
}

func withLedger(
	ctx *cli.Context, fn func(context.Context, *config.Config) error,
) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer cfg.Close()

	reqCtx, cancel := context.WithTimeout(ctx.Context, commandTimeout())
	defer cancel()

	if err := fn(reqCtx, cfg); err != nil {
		return fmt.Errorf("%s failed: %w", ctx.Command.Name, err)
	}
	return nil
}
