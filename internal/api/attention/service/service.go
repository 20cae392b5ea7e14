package attentionService

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"FocusGolang/internal/api/attention"
	attentionRepository "FocusGolang/internal/api/attention/repository"
	"FocusGolang/internal/entity"
	"FocusGolang/pkg/broadcast"
	"FocusGolang/pkg/landmark"
	redisPkg "FocusGolang/pkg/redis"
	"FocusGolang/pkg/utils"
	"FocusGolang/pkg/vision"
)

type IAttentionService interface {
	StartSession(ctx context.Context) (entity.StudySession, error)
	EndSession(ctx context.Context, sessionID string, purge bool) error
	ProcessFrame(ctx context.Context, sessionID string, image []byte, capturedAt time.Time) (entity.FocusMetricRecord, []entity.FocusEvent, error)
	GetRecentMetrics(ctx context.Context, sessionID string, n int) ([]entity.FocusMetricRecord, error)
	GetTimeSeries(ctx context.Context, sessionID string) ([]entity.FocusMetricRecord, error)
	GetAggregate(ctx context.Context, sessionID string) (entity.FocusAggregate, error)
	GetEvents(ctx context.Context, sessionID string) ([]entity.FocusEvent, error)
	Shutdown()
}

type attentionService struct {
	log         *logrus.Logger
	repo        attentionRepository.Repository
	detector    landmark.IDetector
	redis       redisPkg.IRedis
	broadcaster broadcast.IBroadcaster
	utils       utils.IUtils
	cfg         attention.PipelineConfig

	gateCfg    vision.GateConfig
	gazeCfg    vision.GazeConfig
	blinkCfg   vision.BlinkConfig
	poseCfg    vision.HeadPoseConfig
	fusionCfg  vision.FusionConfig
	emotionCfg vision.EmotionConfig

	mu    sync.RWMutex
	lanes map[string]*sessionLane
}

func New(
	log *logrus.Logger,
	repo attentionRepository.Repository,
	detector landmark.IDetector,
	redis redisPkg.IRedis,
	broadcaster broadcast.IBroadcaster,
	utils utils.IUtils,
	cfg attention.PipelineConfig,
) IAttentionService {
	gateCfg := vision.DefaultGateConfig()
	gateCfg.MinFrameBytes = cfg.MinFrameBytes
	gateCfg.MaxFrameBytes = cfg.MaxFrameBytes
	gateCfg.MinFrameDim = cfg.MinFrameDim
	gateCfg.LightingFloor = cfg.LightingFloor
	gateCfg.SharpnessFloor = cfg.SharpnessFloor

	blinkCfg := vision.DefaultBlinkConfig()
	blinkCfg.ClosedThreshold = cfg.BlinkClosedThreshold

	poseCfg := vision.DefaultHeadPoseConfig()
	poseCfg.ConfidenceFloor = cfg.DetectionConfidenceFloor

	fusionCfg := vision.DefaultFusionConfig()
	fusionCfg.WindowSize = cfg.SmoothingWindowSize

	emotionCfg := vision.DefaultEmotionConfig()
	emotionCfg.ConfidenceFloor = cfg.EmotionConfidenceFloor

	return &attentionService{
		log:         log,
		repo:        repo,
		detector:    detector,
		redis:       redis,
		broadcaster: broadcaster,
		utils:       utils,
		cfg:         cfg,
		gateCfg:     gateCfg,
		gazeCfg:     vision.DefaultGazeConfig(),
		blinkCfg:    blinkCfg,
		poseCfg:     poseCfg,
		fusionCfg:   fusionCfg,
		emotionCfg:  emotionCfg,
		lanes:       make(map[string]*sessionLane),
	}
}
