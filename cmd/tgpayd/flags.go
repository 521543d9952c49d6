package main

import "github.com/urfave/cli/v2"

const (
	handleFlagName  = "handle"
	addressFlagName = "address"
	limitFlagName   = "limit"
)

var (
	handleFlag = &cli.StringFlag{
		Name:     handleFlagName,
		Usage:    "telegram handle, with or without the leading @",
		Required: true,
	}
	addressFlag = &cli.StringFlag{
		Name:     addressFlagName,
		Usage:    "chain address",
		Required: true,
	}
	limitFlag = &cli.IntFlag{
		Name:  limitFlagName,
		Usage: "max number of updates to list",
		Value: 20,
	}
)
