package facematch

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

// rekognitionAPI is the part of *rekognition.Client we use.
type rekognitionAPI interface {
	CompareFaces(ctx context.Context, in *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error)
}

var newRekognitionFromConfig = func(cfg aws.Config, optFns ...func(*rekognition.Options)) rekognitionAPI {
	return rekognition.NewFromConfig(cfg, optFns...)
}

// RekognitionComparer calls Amazon Rekognition CompareFaces with the live
// image as source and the reference image as target.
type RekognitionComparer struct {
	client              rekognitionAPI
	similarityThreshold float32
}

func NewRekognitionComparer(cfg aws.Config, endpoint string, similarityThreshold float64) *RekognitionComparer {
	client := newRekognitionFromConfig(cfg, func(o *rekognition.Options) {
		o.BaseEndpoint = endpointOverride(endpoint)
	})
	return &RekognitionComparer{client: client, similarityThreshold: float32(similarityThreshold)}
}

func (c *RekognitionComparer) CompareFaces(ctx context.Context, source, reference []byte) ([]models.FaceMatch, error) {
	in := &rekognition.CompareFacesInput{
		SourceImage: &types.Image{Bytes: source},
		TargetImage: &types.Image{Bytes: reference},
	}
	if c.similarityThreshold > 0 {
		in.SimilarityThreshold = aws.Float32(c.similarityThreshold)
	}

	out, err := c.client.CompareFaces(ctx, in)
	if err != nil {
		return nil, err
	}

	matches := make([]models.FaceMatch, 0, len(out.FaceMatches))
	for _, fm := range out.FaceMatches {
		m := models.FaceMatch{Similarity: float64(aws.ToFloat32(fm.Similarity))}
		if fm.Face != nil {
			m.Confidence = float64(aws.ToFloat32(fm.Face.Confidence))
			if bb := fm.Face.BoundingBox; bb != nil {
				m.BoundingBox = models.BoundingBox{
					Width:  float64(aws.ToFloat32(bb.Width)),
					Height: float64(aws.ToFloat32(bb.Height)),
					Left:   float64(aws.ToFloat32(bb.Left)),
					Top:    float64(aws.ToFloat32(bb.Top)),
				}
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}
