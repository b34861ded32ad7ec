package main

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if err != nil {
		if pkgerrors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: email})
	}

	now := time.Now().UTC()
	if err != nil {
		if pkgerrors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username:  uname,
			Email:     email,
			IsActive:  true,
			Roles:     []string{user.RoleStudent},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if isAdmin {
			usr.Roles = user.AllRoles
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	return err
}
