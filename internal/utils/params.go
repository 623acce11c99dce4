package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	return getID(ctx, "project_id", "project")
}

func GetSubtitleID(ctx *gin.Context) (uint, error) {
	return getID(ctx, "subtitle_id", "subtitle")
}

func GetNotificationID(ctx *gin.Context) (uint, error) {
	return getID(ctx, "notification_id", "notification")
}

// GetProjectSubtitleID reads both ids of a subtitle route.
func GetProjectSubtitleID(ctx *gin.Context) (uint, uint, error) {
	projectID, err := GetProjectID(ctx)

	if err != nil {
		return 0, 0, err
	}

	subtitleID, err := GetSubtitleID(ctx)

	if err != nil {
		return 0, 0, err
	}

	return projectID, subtitleID, nil
}

func getID(ctx *gin.Context, param, name string) (uint, error) {
	raw := ctx.Param(param)

	if raw == "" {
		return 0, errors.NotValidf("missing %s ID", name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errors.NotValidf("%s ID %q", name, raw)
	}

	return uint(id), nil
}
