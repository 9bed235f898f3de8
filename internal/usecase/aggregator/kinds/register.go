package kinds

import (
	"yana/internal/domain/entity"
	"yana/internal/usecase/aggregator"
)

// RegisterAll wires every closed aggregator kind into reg.
func RegisterAll(reg *aggregator.Registry, feeds FeedFetcher, pages HTMLFetcher, bytes ByteFetcher, channels ChannelAPI) {
	reg.Register(entity.KindFullWebsite, func() aggregator.Aggregator { return NewFullWebsite(feeds) })
	reg.Register(entity.KindFeedContent, func() aggregator.Aggregator { return NewFeedContent(feeds) })
	reg.Register(entity.KindYouTube, func() aggregator.Aggregator { return NewYouTube(feeds, channels) })
	reg.Register(entity.KindReddit, func() aggregator.Aggregator { return NewReddit(feeds, bytes) })
	reg.Register(entity.KindPodcast, func() aggregator.Aggregator { return NewPodcast(feeds) })
	reg.Register(entity.KindMeinMMO, func() aggregator.Aggregator { return NewMeinMMO(feeds, pages) })
	reg.Register(entity.KindHeise, func() aggregator.Aggregator { return NewHeise(feeds) })
	reg.Register(entity.KindMerkur, func() aggregator.Aggregator { return NewMerkur(feeds) })
	reg.Register(entity.KindTagesschau, func() aggregator.Aggregator { return NewTagesschau(feeds) })
	reg.Register(entity.KindExplosm, func() aggregator.Aggregator { return NewExplosm(feeds) })
	reg.Register(entity.KindDarkLegacy, func() aggregator.Aggregator { return NewDarkLegacy(feeds) })
	reg.Register(entity.KindOglaf, func() aggregator.Aggregator { return NewOglaf(feeds) })
	reg.Register(entity.KindCaschysBlog, func() aggregator.Aggregator { return NewCaschysBlog(feeds) })
	reg.Register(entity.KindMacTechNews, func() aggregator.Aggregator { return NewMacTechNews(feeds) })
}
